// File: internal/pkg/response/responser_test.go
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/xerrors"

	"github.com/stretchr/testify/require"
)

func correlatedContext(traceID, requestID string) context.Context {
	ctx := correlation.NewContext(context.Background())
	correlation.Publish(ctx, correlation.TraceID, traceID)
	correlation.Publish(ctx, correlation.RequestID, requestID)
	return ctx
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteSuccessCarriesCorrelation(t *testing.T) {
	w := NewWriter(nil)
	ctx := correlatedContext("abc-123", "req-1")
	rec := httptest.NewRecorder()

	require.NoError(t, w.WriteSuccess(ctx, rec, map[string]string{"id": "p-1"}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(xerrors.CodeSuccess.ToInt()), body["code"])
	require.Equal(t, "abc-123", body["trace_id"])
	require.Equal(t, "req-1", body["request_id"])
	require.NotNil(t, body["data"])
}

func TestWriteSuccessWithoutStore(t *testing.T) {
	w := NewWriter(nil)
	rec := httptest.NewRecorder()

	// 没有关联存储时正常输出，只是不带标识字段
	require.NoError(t, w.WriteSuccess(context.Background(), rec, EmptyData{}))

	body := decodeBody(t, rec)
	_, exists := body["trace_id"]
	require.False(t, exists)
	_, exists = body["request_id"]
	require.False(t, exists)
}

func TestWriteErrorMapsAppError(t *testing.T) {
	w := NewWriter(nil)
	ctx := correlatedContext("abc-123", "req-1")
	rec := httptest.NewRecorder()

	require.NoError(t, w.WriteError(ctx, rec, xerrors.NewProductNotFoundError("p-404")))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(xerrors.CodeProductNotFound.ToInt()), body["code"])
	require.Equal(t, "abc-123", body["trace_id"])
	require.Equal(t, "req-1", body["request_id"])
}

func TestWriteErrorWrapsUnknownError(t *testing.T) {
	w := NewWriter(nil)
	rec := httptest.NewRecorder()

	require.NoError(t, w.WriteError(context.Background(), rec, errors.New("boom")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(xerrors.CodeInternalError.ToInt()), body["code"])
}

func TestWriteErrorPrefersAppErrorCorrelation(t *testing.T) {
	w := NewWriter(nil)
	// 存储里是另一套标识，AppError 自带的优先（最外层错误处理器场景）
	ctx := correlatedContext("store-trace", "store-req")
	rec := httptest.NewRecorder()

	appErr := xerrors.NewProductNotFoundError("p-404").
		WithCorrelation("err-trace", "err-req")
	require.NoError(t, w.WriteError(ctx, rec, appErr))

	body := decodeBody(t, rec)
	require.Equal(t, "err-trace", body["trace_id"])
	require.Equal(t, "err-req", body["request_id"])
}

func TestJSONFillsOnlyMissingCorrelation(t *testing.T) {
	ctx := correlatedContext("abc-123", "req-1")
	rec := httptest.NewRecorder()

	resp := Success(&EmptyData{})
	resp.TraceId = "preset-trace"
	require.NoError(t, JSON(ctx, rec, http.StatusOK, resp))

	body := decodeBody(t, rec)
	require.Equal(t, "preset-trace", body["trace_id"])
	require.Equal(t, "req-1", body["request_id"])
}
