package xspan

import (
	"fmt"
	"strings"

	"github.com/omeyang/xspan/pkg/observability/xlog"
)

// 内置字段名，所有 Schema 都包含这些字段。
const (
	FieldSpanKind        = "span.kind"
	FieldMethod          = "http.request.method"
	FieldPath            = "url.path"
	FieldQuery           = "url.query"
	FieldScheme          = "url.scheme"
	FieldRequestID       = "http.request_id"
	FieldUserAgent       = "user_agent.original"
	FieldHeaders         = "http.headers"
	FieldProtocolName    = "network.protocol.name"
	FieldProtocolVersion = "network.protocol.version"
	FieldClientAddress   = "client.address"
	FieldStatusCode      = "http.response.status_code"
	FieldErrorType       = "error.type"
	FieldErrorMessage    = "error.message"
)

// SpanKindServer span.kind 的初始值。
const SpanKindServer = "server"

// builtinFields 内置字段及初始值，顺序即记录与输出顺序。
var builtinFields = [...]Field{
	{Name: FieldSpanKind, Value: SpanKindServer},
	{Name: FieldMethod},
	{Name: FieldPath},
	{Name: FieldQuery},
	{Name: FieldScheme},
	{Name: FieldRequestID},
	{Name: FieldUserAgent},
	{Name: FieldHeaders},
	{Name: FieldProtocolName},
	{Name: FieldProtocolVersion},
	{Name: FieldClientAddress},
	{Name: FieldStatusCode},
	{Name: FieldErrorType},
	{Name: FieldErrorMessage},
}

// Field 跨度字段声明。Value 为 nil 表示创建时未赋值。
type Field struct {
	Name  string
	Value any
}

// Schema 跨度的封闭字段集合：名称、级别、内置字段与调用方声明的扩展字段。
//
// Schema 创建后不可变，可在多个 goroutine 间共享。
type Schema struct {
	name   string
	level  xlog.Level
	fields []Field
	index  map[string]int
}

// NewSchema 校验并创建 Schema。
//
// 扩展字段不能与内置字段重名，也不能互相重名。
func NewSchema(name string, level xlog.Level, extras ...Field) (*Schema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptySpanName
	}

	fields := make([]Field, 0, len(builtinFields)+len(extras))
	fields = append(fields, builtinFields[:]...)
	index := make(map[string]int, cap(fields))
	for i, f := range fields {
		index[f.Name] = i
	}

	for _, f := range extras {
		if strings.TrimSpace(f.Name) == "" {
			return nil, ErrEmptyFieldName
		}
		if i, ok := index[f.Name]; ok {
			if i < len(builtinFields) {
				return nil, fmt.Errorf("%w: %s", ErrReservedField, f.Name)
			}
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		index[f.Name] = len(fields)
		fields = append(fields, f)
	}

	return &Schema{name: name, level: level, fields: fields, index: index}, nil
}

// Name 返回跨度名称。
func (s *Schema) Name() string { return s.name }

// Level 返回跨度级别。
func (s *Schema) Level() xlog.Level { return s.level }

// Len 返回字段数量。
func (s *Schema) Len() int { return len(s.fields) }

// Fields 返回字段声明的副本。
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Index 返回字段在 Schema 中的位置。
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has 字段是否已声明。
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// kind 返回 span.kind 的初始值。
func (s *Schema) kind() string {
	v, _ := s.fields[s.index[FieldSpanKind]].Value.(string)
	return v
}
