// Package camt053 reads and writes ISO 20022 camt.053 bank-to-customer
// statements.
//
// Element matching on decode ignores namespaces, so camt.053.001.02 and
// later revisions decode the same way.
package camt053

import "encoding/xml"

// Namespace is written on the Document element by Encode.
const Namespace = "urn:iso:std:iso:20022:tech:xsd:camt.053.001.02"

// Document is the message envelope.
type Document struct {
	XMLName       xml.Name       `xml:"Document"`
	Xmlns         string         `xml:"xmlns,attr,omitempty"`
	BkToCstmrStmt BankToCustomer `xml:"BkToCstmrStmt"`
}

// BankToCustomer holds the group header and statements.
type BankToCustomer struct {
	GrpHdr *GroupHeader `xml:"GrpHdr,omitempty"`
	Stmt   []Stmt       `xml:"Stmt"`
}

// GroupHeader identifies the message.
type GroupHeader struct {
	MsgID   string `xml:"MsgId"`
	CreDtTm string `xml:"CreDtTm,omitempty"`
}

// Stmt is one account statement.
type Stmt struct {
	XMLName      xml.Name `xml:"Stmt"`
	ID           string   `xml:"Id,omitempty"`
	ElctrncSeqNb string   `xml:"ElctrncSeqNb,omitempty"`
	CreDtTm      string   `xml:"CreDtTm,omitempty"`
	FrToDt       *Period  `xml:"FrToDt,omitempty"`
	Acct         Account  `xml:"Acct"`
	Bal          []Bal    `xml:"Bal"`
	Ntry         []Entry  `xml:"Ntry"`
}

// Period is the reporting interval.
type Period struct {
	FrDtTm string `xml:"FrDtTm,omitempty"`
	ToDtTm string `xml:"ToDtTm,omitempty"`
}

// Account is the statement holder's account.
type Account struct {
	ID   AccountID `xml:"Id"`
	Ccy  string    `xml:"Ccy,omitempty"`
	Nm   string    `xml:"Nm,omitempty"`
	Ownr *Party    `xml:"Ownr,omitempty"`
}

// AccountID carries either an IBAN or a proprietary identifier.
type AccountID struct {
	IBAN string      `xml:"IBAN,omitempty"`
	Othr *OtherIDRef `xml:"Othr,omitempty"`
}

// OtherIDRef is a non-IBAN account identifier.
type OtherIDRef struct {
	ID string `xml:"Id"`
}

// Bal is a balance of the statement.
type Bal struct {
	Tp        BalanceType `xml:"Tp"`
	Amt       Amount      `xml:"Amt"`
	CdtDbtInd string      `xml:"CdtDbtInd"`
	Dt        *DateChoice `xml:"Dt,omitempty"`
}

// BalanceType holds the balance code such as OPBD or CLBD.
type BalanceType struct {
	CdOrPrtry struct {
		Cd    string `xml:"Cd,omitempty"`
		Prtry string `xml:"Prtry,omitempty"`
	} `xml:"CdOrPrtry"`
}

// Amount is a decimal value with its currency attribute.
type Amount struct {
	Value string `xml:",chardata"`
	Ccy   string `xml:"Ccy,attr,omitempty"`
}

// DateChoice is either a date or a date-time.
type DateChoice struct {
	Dt   string `xml:"Dt,omitempty"`
	DtTm string `xml:"DtTm,omitempty"`
}

func (d *DateChoice) value() string {
	if d == nil {
		return ""
	}
	if d.Dt != "" {
		return d.Dt
	}
	return d.DtTm
}

// Entry is one booked movement.
type Entry struct {
	Amt          Amount        `xml:"Amt"`
	CdtDbtInd    string        `xml:"CdtDbtInd"`
	Sts          string        `xml:"Sts,omitempty"`
	BookgDt      DateChoice    `xml:"BookgDt"`
	ValDt        *DateChoice   `xml:"ValDt,omitempty"`
	AcctSvcrRef  string        `xml:"AcctSvcrRef,omitempty"`
	NtryDtls     *EntryDetails `xml:"NtryDtls,omitempty"`
	AddtlNtryInf string        `xml:"AddtlNtryInf,omitempty"`
}

// EntryDetails groups the transaction details of an entry.
type EntryDetails struct {
	TxDtls []TxDetails `xml:"TxDtls"`
}

// TxDetails describes the underlying transaction.
type TxDetails struct {
	Refs      *References     `xml:"Refs,omitempty"`
	RltdPties *RelatedParties `xml:"RltdPties,omitempty"`
	RmtInf    *Remittance     `xml:"RmtInf,omitempty"`
}

// References are the end-to-end identifiers of a transaction.
type References struct {
	EndToEndID string `xml:"EndToEndId,omitempty"`
	TxID       string `xml:"TxId,omitempty"`
}

// RelatedParties are the debtor and creditor sides of a transaction.
type RelatedParties struct {
	Dbtr      *Party        `xml:"Dbtr,omitempty"`
	DbtrAcct  *PartyAccount `xml:"DbtrAcct,omitempty"`
	UltmtDbtr *Party        `xml:"UltmtDbtr,omitempty"`
	Cdtr      *Party        `xml:"Cdtr,omitempty"`
	CdtrAcct  *PartyAccount `xml:"CdtrAcct,omitempty"`
	UltmtCdtr *Party        `xml:"UltmtCdtr,omitempty"`
}

// Party is a named participant.
type Party struct {
	Nm string `xml:"Nm,omitempty"`
}

// PartyAccount is the account of a related party.
type PartyAccount struct {
	ID AccountID `xml:"Id"`
}

// Remittance holds the free-form payment details.
type Remittance struct {
	Ustrd []string `xml:"Ustrd"`
}
