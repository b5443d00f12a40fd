// Package edi parses X12 837 claim submissions and encodes X12 835
// remittance advices. Parsing is a pure transform: no storage access,
// and a malformed document never produces a partially populated claim.
package edi

import (
	"io"
	"strconv"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/shopspring/decimal"

	customErrors "github.com/domjweb/FastVal/claims/errors"
	"github.com/domjweb/FastVal/claims/models"
)

const (
	defaultSegmentTerminator = "~"
	defaultElementSeparator  = "*"
	subelementSeparator      = ":"

	// A full ISA segment is fixed-width: the element separator sits at
	// byte 3 and the segment terminator at byte 105.
	isaSegmentLength = 106
)

type delimiters struct {
	segment string
	element string
}

// Parse turns a raw 837 document into an unstored claim in status RECEIVED.
// Unknown segment tags are skipped; missing patient or provider blocks,
// an unrecognized transaction type, and malformed service lines are fatal.
func Parse(raw io.Reader) (*models.Claim, error) {
	data, err := io.ReadAll(utfbom.SkipOnly(raw))
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, &customErrors.ParseError{Reason: customErrors.ParseMissingSegment, Segment: "ISA"}
	}

	delims := detectDelimiters(content)
	segments := splitSegments(content, delims)

	claimType, err := detectClaimType(segments, delims)
	if err != nil {
		return nil, err
	}

	claim := &models.Claim{
		ClaimType: claimType,
		Status:    models.ClaimStatusReceived,
		RawEDI:    content,
	}

	if err := extractParties(claim, segments, delims); err != nil {
		return nil, err
	}
	extractClaimInfo(claim, segments, delims)
	extractDiagnosisCodes(claim, segments, delims)

	if err := extractServiceLines(claim, segments, delims); err != nil {
		return nil, err
	}

	claim.TotalCharges = claim.LineChargeTotal()

	return claim, nil
}

func detectDelimiters(content string) delimiters {
	d := delimiters{segment: defaultSegmentTerminator, element: defaultElementSeparator}
	if strings.HasPrefix(content, "ISA") && len(content) >= isaSegmentLength {
		d.element = string(content[3])
		d.segment = string(content[105])
	}
	return d
}

func splitSegments(content string, d delimiters) []string {
	var segments []string
	for _, raw := range strings.Split(content, d.segment) {
		if s := strings.TrimSpace(raw); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// detectClaimType reads the functional identifier from the GS segment:
// HC marks an institutional 837I interchange, HP a professional 837P.
func detectClaimType(segments []string, d delimiters) (models.ClaimType, error) {
	for _, segment := range segments {
		elements := strings.Split(segment, d.element)
		if elements[0] != "GS" {
			continue
		}
		if len(elements) < 2 {
			break
		}
		switch elements[1] {
		case "HC":
			return models.ClaimTypeInstitutional, nil
		case "HP":
			return models.ClaimTypeProfessional, nil
		default:
			return "", &customErrors.ParseError{Reason: customErrors.ParseUnknownClaimType, Segment: segment}
		}
	}
	return "", &customErrors.ParseError{Reason: customErrors.ParseUnknownClaimType, Segment: "GS"}
}

// extractParties pulls the patient block (NM1*IL plus DMG demographics) and
// the billing or rendering provider block (NM1*85 / NM1*82). Both blocks
// are required.
func extractParties(claim *models.Claim, segments []string, d delimiters) error {
	var patientFound, providerFound bool

	for _, segment := range segments {
		elements := strings.Split(segment, d.element)
		switch elements[0] {
		case "NM1":
			if len(elements) < 2 {
				continue
			}
			switch elements[1] {
			case "IL":
				patientFound = true
				claim.PatientName = strings.TrimSpace(element(elements, 3) + " " + element(elements, 4))
				claim.PatientID = element(elements, 9)
			case "85", "82":
				if providerFound {
					continue
				}
				providerFound = true
				claim.ProviderName = element(elements, 3)
				claim.ProviderNPI = element(elements, 9)
				claim.ProviderID = element(elements, 9)
			}
		case "DMG":
			claim.PatientDOB = formatDate(element(elements, 2))
			claim.PatientGender = element(elements, 3)
		}
	}

	if !patientFound {
		return &customErrors.ParseError{Reason: customErrors.ParseMissingSegment, Segment: "NM1*IL"}
	}
	if !providerFound {
		return &customErrors.ParseError{Reason: customErrors.ParseMissingSegment, Segment: "NM1*85"}
	}
	return nil
}

// extractClaimInfo reads the submitter's claim identifier from CLM and the
// claim-level dates from DTP segments that precede the first service line.
// DTP qualifiers: 472 service, 435 admission, 096 discharge.
func extractClaimInfo(claim *models.Claim, segments []string, d delimiters) {
	inLineLoop := false
	for _, segment := range segments {
		elements := strings.Split(segment, d.element)
		switch elements[0] {
		case "LX":
			inLineLoop = true
		case "CLM":
			claim.ClaimID = element(elements, 1)
		case "DTP":
			if len(elements) < 4 {
				continue
			}
			value := formatDate(elements[3])
			switch elements[1] {
			case "472":
				if !inLineLoop {
					claim.ServiceDate = value
				}
			case "435":
				claim.AdmissionDate = value
			case "096":
				claim.DischargeDate = value
			}
		}
	}
}

// extractDiagnosisCodes collects every HI element in document order,
// keeping duplicates. Composite values (qualifier:code) keep the code
// part; bare values drop the leading three-character qualifier.
func extractDiagnosisCodes(claim *models.Claim, segments []string, d delimiters) {
	for _, segment := range segments {
		elements := strings.Split(segment, d.element)
		if elements[0] != "HI" {
			continue
		}
		for _, el := range elements[1:] {
			if strings.Contains(el, subelementSeparator) {
				parts := strings.Split(el, subelementSeparator)
				if len(parts) > 1 && parts[1] != "" {
					claim.DiagnosisCodes = append(claim.DiagnosisCodes, parts[1])
				}
			} else if len(el) > 3 {
				claim.DiagnosisCodes = append(claim.DiagnosisCodes, el[3:])
			}
		}
	}
}

// extractServiceLines walks the LX loops. Each LX opens a line; SV1
// (professional) or SV2 (institutional) carries the procedure, charge and
// units; a DTP*472 inside the loop dates the current line.
func extractServiceLines(claim *models.Claim, segments []string, d delimiters) error {
	var current *models.ServiceLine
	lineIndex := 0

	flush := func() {
		if current != nil {
			claim.ServiceLines = append(claim.ServiceLines, *current)
			claim.ProcedureCodes = append(claim.ProcedureCodes, current.ProcedureCode)
		}
	}

	for _, segment := range segments {
		elements := strings.Split(segment, d.element)
		switch elements[0] {
		case "LX":
			flush()
			lineIndex++
			lineNumber, err := strconv.Atoi(element(elements, 1))
			if err != nil {
				return &customErrors.ParseError{Reason: customErrors.ParseMalformedServiceLine, Segment: segment, Line: lineIndex, Err: err}
			}
			current = &models.ServiceLine{LineNumber: lineNumber, Units: 1}
		case "SV1", "SV2":
			if current == nil {
				return &customErrors.ParseError{Reason: customErrors.ParseMalformedServiceLine, Segment: segment, Line: lineIndex + 1}
			}
			if err := parseServiceSegment(current, elements, segment, lineIndex); err != nil {
				return err
			}
		case "DTP":
			if current != nil && len(elements) > 3 && elements[1] == "472" {
				current.ServiceDate = formatDate(elements[3])
			}
		}
	}
	flush()

	return nil
}

func parseServiceSegment(line *models.ServiceLine, elements []string, segment string, lineIndex int) error {
	malformed := func(err error) error {
		return &customErrors.ParseError{Reason: customErrors.ParseMalformedServiceLine, Segment: segment, Line: lineIndex, Err: err}
	}

	// Composite procedure: qualifier, code, then optional modifiers.
	procedure := element(elements, 1)
	if strings.Contains(procedure, subelementSeparator) {
		parts := strings.Split(procedure, subelementSeparator)
		line.ProcedureCode = parts[1]
		for _, m := range parts[2:] {
			if m != "" {
				line.Modifiers = append(line.Modifiers, m)
			}
		}
	} else {
		line.ProcedureCode = procedure
	}

	charge := element(elements, 2)
	if charge == "" {
		return malformed(strconv.ErrSyntax)
	}
	amount, err := decimal.NewFromString(charge)
	if err != nil {
		return malformed(err)
	}
	if amount.IsNegative() {
		return malformed(strconv.ErrRange)
	}
	line.ChargeAmount = amount

	if units := element(elements, 4); units != "" {
		parsed, err := decimal.NewFromString(units)
		if err != nil || !parsed.IsInteger() || !parsed.IsPositive() {
			return malformed(strconv.ErrSyntax)
		}
		line.Units = int(parsed.IntPart())
	}

	return nil
}

func element(elements []string, i int) string {
	if i < len(elements) {
		return strings.TrimSpace(elements[i])
	}
	return ""
}

// formatDate normalizes CCYYMMDD and YYMMDD to YYYY-MM-DD. Two-digit
// years below 50 are read as 20xx, the rest as 19xx. Values that fit
// neither shape pass through untouched.
func formatDate(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()

	switch len(s) {
	case 8:
		return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
	case 6:
		year, _ := strconv.Atoi(s[0:2])
		century := "19"
		if year < 50 {
			century = "20"
		}
		return century + s[0:2] + "-" + s[2:4] + "-" + s[4:6]
	}
	return value
}
