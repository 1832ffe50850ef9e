// File: internal/pkg/response/responser.go
package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/log"
	"catalog-self/internal/pkg/metrics"
	"catalog-self/internal/pkg/xerrors"
)

// EmptyData 是一个用于在 API 成功响应中表示“无数据”的结构体。
// 使用一个具体的空结构体，比直接返回 nil 或 interface{} 更类型安全、意图更明确。
type EmptyData struct{}

// ResponseResult 是一个通用的API响应结构体
type ResponseResult[T any] struct {
	Code      int    `json:"code"`                 // 业务响应码
	Message   string `json:"message"`              // 响应消息
	Data      *T     `json:"data,omitempty"`       // 响应数据，成功时返回
	Error     string `json:"error,omitempty"`      // 错误详情，失败时返回
	Timestamp int64  `json:"timestamp"`            // Unix时间戳
	TraceId   string `json:"trace_id,omitempty"`   // 跨跳追踪ID
	RequestId string `json:"request_id,omitempty"` // 单跳请求ID
}

// Success 创建一个成功的响应
func Success[T any](data *T) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      xerrors.CodeSuccess.ToInt(),
		Message:   "操作成功",
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// Error 创建一个失败的响应
// 注意：对于失败响应，泛型 T 的具体类型不重要，所以 Data 字段将为 nil
func Error[T any](code int, message string, err string) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      code,
		Message:   message,
		Error:     err,
		Timestamp: time.Now().Unix(),
	}
}

// withCorrelation 把当前工作单元的关联标识注入响应体。
// 标识从关联存储读取；存储已被清空时（例如最外层错误处理器）由调用方
// 通过 TraceId/RequestId 字段自行回填。
func (r *ResponseResult[T]) withCorrelation(ctx context.Context) *ResponseResult[T] {
	if r.TraceId == "" {
		if id, ok := correlation.Get(ctx, correlation.TraceID); ok {
			r.TraceId = id
		}
	}
	if r.RequestId == "" {
		if id, ok := correlation.Get(ctx, correlation.RequestID); ok {
			r.RequestId = id
		}
	}
	return r
}

// JSON 将响应以JSON格式写入 http.ResponseWriter
// 这个辅助函数非常重要，它统一了所有API的输出方式
func JSON[T any](ctx context.Context, w http.ResponseWriter, statusCode int, resp *ResponseResult[T]) error {
	resp.withCorrelation(ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode) // 写入HTTP状态码

	// 将响应结构体序列化为JSON并写入响应体
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// 此时 header 已经写入，只能记录日志
		log.ErrorContext(ctx, "写入JSON响应失败", log.Any("error", err))
		return err
	}
	return nil
}

// Writer 统一的响应写出接口，中间件和 handler 都通过它输出
type Writer interface {
	// WriteSuccess 写出成功响应（HTTP 200）
	WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error

	// WriteError 写出错误响应；AppError 按错误码映射 HTTP 状态，
	// 其他错误一律包装为内部服务错误
	WriteError(ctx context.Context, w http.ResponseWriter, err error) error

	// WriteJSON 直接写出 JSON（跳过 ResponseResult 包装）
	WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error
}

// jsonWriter Writer 的默认实现
type jsonWriter struct {
	logger  log.Logger
	metrics *metrics.ErrorMetrics
}

// NewWriter 创建默认的响应 Writer
func NewWriter(logger log.Logger) Writer {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &jsonWriter{
		logger:  logger,
		metrics: metrics.DefaultErrorMetrics,
	}
}

func (jw *jsonWriter) WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error {
	resp := Success(&data)
	return JSON(ctx, w, http.StatusOK, resp)
}

func (jw *jsonWriter) WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	appErr, ok := err.(*xerrors.AppError)
	if !ok {
		appErr = xerrors.Wrap(err, xerrors.CodeInternalError, "系统内部错误")
	}

	status := xerrors.GetHTTPStatus(appErr.Code)
	jw.metrics.RecordAppError(metrics.GetServiceName(), appErr)
	jw.metrics.RecordHTTPResponse(metrics.GetServiceName(), status)
	log.LogAppError(ctx, "请求处理失败", appErr)

	resp := Error[EmptyData](appErr.Code.ToInt(), appErr.Message, appErr.Error())
	// 错误响应同样必须携带正确的关联标识（错误路径正是它们最有用的地方）
	if appErr.Context != nil {
		resp.TraceId = appErr.Context.TraceID
		resp.RequestId = appErr.Context.RequestID
	}
	return JSON(ctx, w, status, resp)
}

func (jw *jsonWriter) WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		jw.logger.ErrorContext(ctx, "写入JSON响应失败", log.Any("error", err))
		return err
	}
	return nil
}
