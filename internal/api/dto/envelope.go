package dto

// Envelope wraps every response body. Exactly one of Data and Error is set.
type Envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}
