package aliexpress

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_NestedSuccess(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"aliexpress_affiliate_link_generate_response": {
			"resp_result": {
				"resp_code": 200,
				"resp_msg": "ok",
				"result": {"total_result_count": 1}
			}
		}
	}`)

	res, err := decodeEnvelope(MethodLinkGenerate, body)
	require.NoError(t, err)
	require.JSONEq(t, `{"total_result_count": 1}`, string(res))
}

func TestDecodeEnvelope_FlatResult(t *testing.T) {
	t.Parallel()

	res, err := decodeEnvelope(MethodLinkGenerate, []byte(`{"result": {"x": 1}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"x": 1}`, string(res))

	res, err = decodeEnvelope(MethodLinkGenerate,
		[]byte(`{"aliexpress_affiliate_link_generate_response": {"result": {"y": 2}}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"y": 2}`, string(res))
}

func TestDecodeEnvelope_BusinessError(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"error_response": {
			"code": "15",
			"msg": "Remote service error",
			"sub_code": "InvalidTrackingId",
			"sub_msg": "Invalid Tracking Id",
			"request_id": "req-1"
		}
	}`)

	_, err := decodeEnvelope(MethodLinkGenerate, body)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ClassBusiness, ae.Class)
	require.Equal(t, "15", ae.Code)
	require.Equal(t, "Invalid Tracking Id", ae.SubMessage)
	require.Equal(t, "req-1", ae.RequestID)
	require.False(t, IsRetryable(err))
}

func TestDecodeEnvelope_BusinessError_NumericCode(t *testing.T) {
	t.Parallel()

	body := []byte(`{"error_response": {"code": 15, "msg": "boom"}}`)

	_, err := decodeEnvelope(MethodLinkGenerate, body)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "15", ae.Code)
}

func TestDecodeEnvelope_GatewayError(t *testing.T) {
	t.Parallel()

	body := []byte(`{"code": "InvalidSignature", "message": "sign check failed", "request_id": "abc"}`)

	_, err := decodeEnvelope(MethodLinkGenerate, body)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ClassBusiness, ae.Class)
	require.Equal(t, "InvalidSignature", ae.Code)
	require.Equal(t, "abc", ae.RequestID)
	require.False(t, IsRetryable(err))
}

func TestDecodeEnvelope_RespResultFailureCode(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"aliexpress_affiliate_link_generate_response": {
			"resp_result": {"resp_code": 405, "resp_msg": "denied"}
		}
	}`)

	_, err := decodeEnvelope(MethodLinkGenerate, body)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ClassBusiness, ae.Class)
	require.Equal(t, "405", ae.Code)
}

func TestDecodeEnvelope_NonJSONIsTransient(t *testing.T) {
	t.Parallel()

	_, err := decodeEnvelope(MethodLinkGenerate, []byte(`<html>bad gateway</html>`))
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ClassTransient, ae.Class)
	require.True(t, IsRetryable(err))
}

func TestDecodeEnvelope_UnrecognizedShape(t *testing.T) {
	t.Parallel()

	_, err := decodeEnvelope(MethodLinkGenerate, []byte(`{"something": "else"}`))
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ClassMalformed, ae.Class)
	require.NotEmpty(t, ae.Raw)
	require.False(t, IsRetryable(err))
}

func TestIsRetryable_TransportErrors(t *testing.T) {
	t.Parallel()

	require.True(t, IsRetryable(errors.New("connection reset")))
}

func TestFlexString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "15", flexString(json.RawMessage(`"15"`)))
	require.Equal(t, "15", flexString(json.RawMessage(`15`)))
	require.Equal(t, "", flexString(nil))
}
