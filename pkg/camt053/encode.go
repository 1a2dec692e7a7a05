package camt053

import (
	"encoding/xml"
	"io"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

const (
	unknownCurrency = "???"
	statusBooked    = "BOOK"

	stampLayout    = "20060102150405"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Encode writes st as a camt.053 document.
func Encode(w io.Writer, st *statement.Statement, opts ...Option) error {
	doc := FromStatement(st, opts...)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return statement.Wrap(statement.KindIO, err, "write camt.053")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return statement.Wrap(statement.KindXML, err, "encode camt.053")
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return statement.Wrap(statement.KindIO, err, "write camt.053")
	}
	return nil
}

// FromStatement builds the document tree for st.
func FromStatement(st *statement.Statement, opts ...Option) *Document {
	now := newOptions(opts).now()
	stamp := now.Format(stampLayout)
	created := now.Format(dateTimeLayout)
	ccy := st.Currency().ISOCode(unknownCurrency)

	stmt := Stmt{
		ID:           "stmt-" + st.AccountID() + "-" + stamp,
		ElctrncSeqNb: "1",
		CreDtTm:      created,
		FrToDt: &Period{
			FrDtTm: st.PeriodFrom().String(),
			ToDtTm: st.PeriodUntil().String(),
		},
		Acct: Account{
			ID:  AccountID{IBAN: st.AccountID()},
			Ccy: ccy,
			Nm:  st.AccountName(),
		},
	}

	if b, ok := st.OpeningBalance(); ok {
		stmt.Bal = append(stmt.Bal, makeBalance(balanceOpening, b, ccy, st.PeriodFrom()))
	}
	if b, ok := st.ClosingBalance(); ok {
		stmt.Bal = append(stmt.Bal, makeBalance(balanceClosing, b, ccy, st.PeriodUntil()))
	}

	for _, tx := range st.Transactions() {
		stmt.Ntry = append(stmt.Ntry, makeEntry(tx, ccy))
	}

	return &Document{
		Xmlns: Namespace,
		BkToCstmrStmt: BankToCustomer{
			GrpHdr: &GroupHeader{
				MsgID:   "serialized_via_parser-" + stamp,
				CreDtTm: created,
			},
			Stmt: []Stmt{stmt},
		},
	}
}

func indicator(dir statement.Direction) string {
	if dir == statement.Debit {
		return indicatorDebit
	}
	return indicatorCredit
}

func makeBalance(code string, b statement.Balance, ccy string, date civil.Date) Bal {
	bal := Bal{
		Amt:       Amount{Value: statement.FormatBalance(b, '.'), Ccy: ccy},
		CdtDbtInd: indicator(b.Direction()),
		Dt:        &DateChoice{Dt: date.String()},
	}
	bal.Tp.CdOrPrtry.Cd = code
	return bal
}

func makeEntry(tx statement.Transaction, ccy string) Entry {
	details := TxDetails{}

	if tx.Counterparty != "" || tx.CounterpartyName != "" {
		var party *Party
		if tx.CounterpartyName != "" {
			party = &Party{Nm: tx.CounterpartyName}
		}
		var account *PartyAccount
		if tx.Counterparty != "" {
			account = &PartyAccount{ID: AccountID{IBAN: tx.Counterparty}}
		}

		details.RltdPties = &RelatedParties{}
		if tx.Direction == statement.Debit {
			details.RltdPties.Cdtr, details.RltdPties.CdtrAcct = party, account
		} else {
			details.RltdPties.Dbtr, details.RltdPties.DbtrAcct = party, account
		}
	}

	if tx.Description != "" {
		details.RmtInf = &Remittance{Ustrd: strings.Split(tx.Description, "\n")}
	}

	return Entry{
		Amt:       Amount{Value: statement.FormatMinorUnits(tx.Amount, '.'), Ccy: ccy},
		CdtDbtInd: indicator(tx.Direction),
		Sts:       statusBooked,
		BookgDt:   DateChoice{Dt: tx.BookingDate.String()},
		ValDt:     &DateChoice{Dt: tx.EffectiveValueDate().String()},
		NtryDtls:  &EntryDetails{TxDtls: []TxDetails{details}},
	}
}
