package gateway

// Wire schema for the Gateway protocol. Requests and responses are explicit
// structs validated at the boundary; anything that does not match the schema
// classifies as gateway_error before it can propagate inward.

// authorizationResponse is the 2xx response body.
type authorizationResponse struct {
	Authorization struct {
		Signature string `json:"signature"`
		Nonce     string `json:"nonce,omitempty"`
		Expiry    int64  `json:"expiry,omitempty"`
	} `json:"authorization"`
	Quota *quotaBody `json:"quota,omitempty"`
}

// quotaBody is the optional quota snapshot attached to success responses.
type quotaBody struct {
	Used     int64  `json:"used"`
	Limit    int64  `json:"limit"`
	ResetsAt string `json:"resetsAt,omitempty"` // RFC 3339
	Plan     string `json:"plan,omitempty"`
}

// errorResponse is the non-2xx response body.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// responseSchema is the JSON schema every 2xx body must satisfy.
const responseSchema = `{
  "type": "object",
  "required": ["authorization"],
  "properties": {
    "authorization": {
      "type": "object",
      "required": ["signature"],
      "properties": {
        "signature": {"type": "string", "minLength": 4},
        "nonce": {"type": "string"},
        "expiry": {"type": "integer"}
      }
    },
    "quota": {
      "type": "object",
      "required": ["used", "limit"],
      "properties": {
        "used": {"type": "integer"},
        "limit": {"type": "integer"},
        "resetsAt": {"type": "string"},
        "plan": {"type": "string"}
      }
    }
  }
}`
