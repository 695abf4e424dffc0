package aliexpress

import (
	"encoding/json"
	"strings"
)

// decodeEnvelope unwraps the family of response shapes the gateway has been
// observed to produce and returns the innermost result object:
//
//   - nested success: {"<method>_response": {"resp_result": {"result": ...}}}
//   - flat success:   {"<method>_response": {"result": ...}} or {"result": ...}
//   - business error: {"error_response": {"code", "msg", "sub_msg", ...}}
//   - gateway error:  {"code", "message", "request_id"}
//
// Anything else is classified malformed with the raw payload preserved.
func decodeEnvelope(method string, body []byte) (json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, &APIError{
			Class:   ClassTransient,
			Message: "non-JSON response body",
			Raw:     body,
		}
	}

	if raw, ok := top["error_response"]; ok {
		return nil, businessError(raw, body)
	}

	if raw, ok := top[responseKey(method)]; ok {
		return unwrapResponse(raw, body)
	}

	if raw, ok := top["result"]; ok {
		return raw, nil
	}

	// Gateway-level rejection without an error_response wrapper.
	if _, hasCode := top["code"]; hasCode {
		if _, hasMsg := top["message"]; hasMsg {
			return nil, gatewayError(top, body)
		}
	}

	return nil, &APIError{
		Class:   ClassMalformed,
		Message: "unrecognized response shape",
		Raw:     body,
	}
}

func responseKey(method string) string {
	return strings.ReplaceAll(method, ".", "_") + "_response"
}

func unwrapResponse(raw json.RawMessage, body []byte) (json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{Class: ClassMalformed, Message: "unparseable response envelope", Raw: body}
	}

	if rr, ok := env["resp_result"]; ok {
		var wrapper struct {
			RespCode json.Number     `json:"resp_code"`
			RespMsg  string          `json:"resp_msg"`
			Result   json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(rr, &wrapper); err != nil {
			return nil, &APIError{Class: ClassMalformed, Message: "unparseable resp_result wrapper", Raw: body}
		}
		if code := wrapper.RespCode.String(); code != "" && code != "200" {
			return nil, &APIError{
				Class:   ClassBusiness,
				Code:    code,
				Message: wrapper.RespMsg,
				Raw:     body,
			}
		}
		return wrapper.Result, nil
	}

	if res, ok := env["result"]; ok {
		return res, nil
	}

	return nil, &APIError{Class: ClassMalformed, Message: "response envelope missing result", Raw: body}
}

func businessError(raw json.RawMessage, body []byte) error {
	var er struct {
		Code      json.RawMessage `json:"code"`
		Msg       string          `json:"msg"`
		SubCode   string          `json:"sub_code"`
		SubMsg    string          `json:"sub_msg"`
		RequestID string          `json:"request_id"`
	}
	if err := json.Unmarshal(raw, &er); err != nil {
		return &APIError{Class: ClassMalformed, Message: "unparseable error_response", Raw: body}
	}
	return &APIError{
		Class:      ClassBusiness,
		Code:       flexString(er.Code),
		Message:    er.Msg,
		SubMessage: er.SubMsg,
		RequestID:  er.RequestID,
		Raw:        body,
	}
}

func gatewayError(top map[string]json.RawMessage, body []byte) error {
	var message, requestID string
	_ = json.Unmarshal(top["message"], &message)
	if raw, ok := top["request_id"]; ok {
		_ = json.Unmarshal(raw, &requestID)
	}
	return &APIError{
		Class:     ClassBusiness,
		Code:      flexString(top["code"]),
		Message:   message,
		RequestID: requestID,
		Raw:       body,
	}
}

// flexString decodes a value the gateway sends either as a JSON string or a
// bare number.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}
