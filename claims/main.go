package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/domjweb/FastVal/claims/constants"
	"github.com/domjweb/FastVal/claims/database"
	"github.com/domjweb/FastVal/claims/models/postgres"
	"github.com/domjweb/FastVal/claims/service"
	"github.com/domjweb/FastVal/claims/web"
	"github.com/domjweb/FastVal/log"
)

func main() {
	if err := setUpApp().Run(os.Args); err != nil {
		log.API.Fatal(err)
	}
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = "fastval"
	app.Usage = "Claim Lifecycle and Adjudication Engine CLI"
	app.Version = constants.Version

	var (
		httpPort int
		claimID  string
	)

	app.Commands = []cli.Command{
		{
			Name:  "start-api",
			Usage: "Start the claims API",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:        "port",
					Value:       3000,
					Usage:       "Port for the API to listen on",
					Destination: &httpPort,
				},
			},
			Action: func(c *cli.Context) error {
				return startAPI(httpPort)
			},
		},
		{
			Name:  "reset-claim",
			Usage: "Administratively reverse a claim's adjudication so it can be decided again",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "claim-id",
					Usage:       "ID of the claim to reset",
					Destination: &claimID,
				},
			},
			Action: func(c *cli.Context) error {
				return resetClaim(claimID)
			},
		},
	}

	return app
}

func startAPI(port int) error {
	svc, db, err := newService()
	if err != nil {
		return err
	}
	defer db.Close()

	api := web.NewAPI(svc, db.Ping)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      web.NewRouter(api),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.API.Infof("Starting claims API on port %d", port)
	return server.ListenAndServe()
}

func resetClaim(claimID string) error {
	if claimID == "" {
		return cli.NewExitError("--claim-id is required", 1)
	}

	svc, db, err := newService()
	if err != nil {
		return err
	}
	defer db.Close()

	claim, err := svc.ResetAdjudication(context.Background(), claimID)
	if err != nil {
		return err
	}

	out, err := json.Marshal(claim)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newService() (service.Service, *sql.DB, error) {
	db, err := database.Connection()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := service.LoadConfig()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	policy, err := service.NewAllowancePolicy(cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return service.NewService(postgres.NewRepository(db), cfg, policy), db, nil
}
