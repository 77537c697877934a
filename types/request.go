package types

// RequestMethod is the HTTP-like verb of a synthetic request.
type RequestMethod string

const (
	MethodGet    RequestMethod = "GET"
	MethodPost   RequestMethod = "POST"
	MethodPut    RequestMethod = "PUT"
	MethodDelete RequestMethod = "DELETE"
)

// RequestMethods lists every method a generated entry may carry.
var RequestMethods = []RequestMethod{MethodGet, MethodPost, MethodPut, MethodDelete}

// RequestType is the operational category of a request.
type RequestType string

const (
	RequestCompra        RequestType = "COMPRA"
	RequestEquipamento   RequestType = "EQUIPAMENTO"
	RequestInertes       RequestType = "INERTES"
	RequestContentores   RequestType = "CONTENTORES"
	RequestUnidadeDeVida RequestType = "UNIDADE_DE_VIDA"
)

// RequestTypes lists the five request categories in display order.
var RequestTypes = []RequestType{
	RequestCompra,
	RequestEquipamento,
	RequestInertes,
	RequestContentores,
	RequestUnidadeDeVida,
}

// Label returns the human readable category name.
func (t RequestType) Label() string {
	if t == RequestUnidadeDeVida {
		return "UNIDADE DE VIDA"
	}
	return string(t)
}

// Valid reports whether t is one of the known categories.
func (t RequestType) Valid() bool {
	for _, known := range RequestTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseRequestType accepts either the identifier or the display label of a category.
func ParseRequestType(raw string) (RequestType, bool) {
	for _, known := range RequestTypes {
		if raw == string(known) || raw == known.Label() {
			return known, true
		}
	}
	return "", false
}

// FulfillmentStatus tracks whether a request was completed.
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "PENDENTE"
	FulfillmentDone      FulfillmentStatus = "CONCLUIDA"
	FulfillmentCancelled FulfillmentStatus = "CANCELADA"
)

// FulfillmentStatuses lists the possible fulfillment states.
var FulfillmentStatuses = []FulfillmentStatus{FulfillmentPending, FulfillmentDone, FulfillmentCancelled}

// RequestEndpoints lists the endpoints a synthetic request may target.
var RequestEndpoints = []string{
	"/api/v1/user",
	"/auth/login",
	"/storage/sync",
	"/system/config",
	"/metrics/collect",
}

// RequestStatusCodes lists the response codes a synthetic request may report.
var RequestStatusCodes = []int{200, 201, 403, 404, 500}

// RequestEntry represents a synthetic record of the request ledger.
type RequestEntry struct {
	// ID is a 9 character upper-case base-36 identifier.
	ID string `json:"id"`

	// Method is the verb of the request.
	Method RequestMethod `json:"method"`

	// Type is the operational category.
	Type RequestType `json:"type"`

	// Endpoint is the path the request targeted.
	Endpoint string `json:"endpoint"`

	// Status is the HTTP-like response code.
	Status int `json:"status"`

	// Timestamp is the local time of generation.
	Timestamp string `json:"timestamp"`

	// Latency is the response time, formatted as "<n>ms".
	Latency string `json:"latency"`

	// ExpectedDate is the local date the request is expected to be fulfilled.
	ExpectedDate string `json:"expected_date"`

	// AttendedOnTime reports whether the request met its deadline.
	AttendedOnTime bool `json:"attended_on_time"`

	// FulfillmentStatus is the current fulfillment state.
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
}
