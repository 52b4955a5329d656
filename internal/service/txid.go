package service

import (
	"github.com/google/uuid"
)

// TxIDIssuer produces the correlation id returned for each successful
// mutation. Ids are unique across the process lifetime; no ordering is
// implied between them.
type TxIDIssuer interface {
	Next() string
}

type uuidIssuer struct{}

func (uuidIssuer) Next() string {
	return uuid.New().String()
}

// NewUUIDIssuer returns an issuer backed by random 128-bit UUIDs.
func NewUUIDIssuer() TxIDIssuer {
	return uuidIssuer{}
}
