package query

type BrokerType string

const (
	BrokerMock   BrokerType = "MOCK"
	BrokerDirect BrokerType = "DIRECT"
	BrokerAktin  BrokerType = "AKTIN"
	BrokerDSF    BrokerType = "DSF"
)

func (b BrokerType) String() string {
	return string(b)
}

func (b BrokerType) IsValid() bool {
	switch b {
	case BrokerMock, BrokerDirect, BrokerAktin, BrokerDSF:
		return true
	default:
		return false
	}
}

type ResultType string

const (
	ResultSuccess ResultType = "SUCCESS"
	ResultError   ResultType = "ERROR"
)

func (r ResultType) String() string {
	return string(r)
}

// MediaType names one serialized representation of a structured query.
type MediaType string

const (
	MediaStructuredQuery MediaType = "application/sq+json"
	MediaCQL             MediaType = "text/cql"
	MediaFHIRSearch      MediaType = "text/fhir-codex"
)

func (m MediaType) String() string {
	return string(m)
}
