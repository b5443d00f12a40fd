package edi

import (
	"fmt"
	"strings"

	"github.com/domjweb/FastVal/claims/models"
)

// Encode835 renders a remittance advice as an X12 835 document. Encoding is
// deterministic for a given advice: all dates come from the advice itself,
// never from the clock, so a cached advice re-encodes byte for byte.
func Encode835(claim *models.Claim, advice *models.RemittanceAdvice) string {
	created := advice.CreatedAt
	controlNumber := interchangeControlNumber(advice.RemittanceID)

	isa := fmt.Sprintf("ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *%s*%s*U*00401*%s*0*P*:",
		created.Format("060102"), created.Format("1504"), controlNumber)
	gs := fmt.Sprintf("GS*HP*SENDER*RECEIVER*%s*%s*1*X*004010X091A1",
		created.Format("20060102"), created.Format("1504"))

	st := "ST*835*0001"
	bpr := fmt.Sprintf("BPR*I*%s*C*%s*CCP*01*999999999*DA*123456789*1234567890**01*999999999*DA*12345*%s",
		advice.TotalPaid.StringFixed(2), advice.PaymentMethod, created.Format("20060102"))
	trn := fmt.Sprintf("TRN*1*%s*1234567890", advice.RemittanceID)
	ref := fmt.Sprintf("REF*EV*%s", advice.PayerID)
	dtm := fmt.Sprintf("DTM*405*%s", created.Format("20060102"))

	n1Payer := fmt.Sprintf("N1*PR*%s", strings.ToUpper(advice.PayerName))
	n3Payer := "N3*123 PAYER STREET"
	n4Payer := "N4*PAYERVILLE*PA*12345"
	n1Payee := fmt.Sprintf("N1*PE*%s*XX*%s", claim.ProviderName, claim.ProviderNPI)

	lx := "LX*1"
	clp := fmt.Sprintf("CLP*%s*%s*%s*%s**12*%s",
		claim.ClaimID, claimStatusCode(claim), advice.TotalBilled.StringFixed(2),
		advice.TotalPaid.StringFixed(2), advice.RemittanceID)

	transaction := []string{st, bpr, trn, ref, dtm, n1Payer, n3Payer, n4Payer, n1Payee, lx, clp}

	for _, adj := range advice.Adjustments {
		transaction = append(transaction, fmt.Sprintf("CAS*%s*%s*%s",
			adj.GroupCode, adj.ReasonCode, adj.Amount.StringFixed(2)))
	}

	lastName, firstName := splitPatientName(claim.PatientName)
	transaction = append(transaction, fmt.Sprintf("NM1*QC*1*%s*%s****MI*%s", lastName, firstName, claim.PatientID))

	if claim.ServiceDate != "" {
		transaction = append(transaction, fmt.Sprintf("DTM*232*%s", strings.ReplaceAll(claim.ServiceDate, "-", "")))
	}

	// SE01 counts every segment from ST through SE inclusive.
	transaction = append(transaction, fmt.Sprintf("SE*%d*0001", len(transaction)+1))

	segments := []string{isa, gs}
	segments = append(segments, transaction...)
	segments = append(segments, "GE*1*1", fmt.Sprintf("IEA*1*%s", controlNumber))

	return strings.Join(segments, "~\n") + "~\n"
}

func claimStatusCode(claim *models.Claim) string {
	if claim.Status == models.ClaimStatusDenied {
		return "4"
	}
	return "1"
}

func interchangeControlNumber(remittanceID string) string {
	if len(remittanceID) > 9 {
		return remittanceID[:9]
	}
	return remittanceID
}

func splitPatientName(name string) (last, first string) {
	parts := strings.SplitN(name, " ", 2)
	last = parts[0]
	if len(parts) > 1 {
		first = parts[1]
	}
	return last, first
}
