package domain

// Config carries the runtime identity of a ledger node.
type Config struct {
	FQDN           string
	NodeID         string
	ContextID      string
	OracleID       string
	OracleEndpoint string
}
