package redis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// PayloadField stream entry 中存放 msgpack+base64 內容的欄位
const PayloadField = "data"

var (
	ErrPointerType    = errors.New("pointer type is not allowed")
	ErrMissingPayload = errors.New("payload field not found or invalid type")
)

// DefaultParseToMessage 以 msgpack 序列化後 base64 編碼，放在 PayloadField
func DefaultParseToMessage[T any](data T) (map[string]any, error) {
	const op = "DefaultParseToMessage"
	if reflect.TypeOf(data).Kind() == reflect.Ptr {
		return nil, ErrPointerType
	}

	raw, err := msgpack.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("[%s] msgpack marshal error: %w", op, err)
	}
	return map[string]any{
		PayloadField: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// DefaultParseFromMessage DefaultParseToMessage 的反向操作
// 沒有 PayloadField 的 entry 一律視為錯誤，避免下游收到零值
func DefaultParseFromMessage[T any](message map[string]any) (T, error) {
	const op = "DefaultParseFromMessage"
	var result T
	if reflect.TypeOf(result).Kind() == reflect.Ptr {
		return result, ErrPointerType
	}

	var encoded string
	switch v := message[PayloadField].(type) {
	case string:
		encoded = v
	case []byte:
		encoded = string(v)
	default:
		return result, fmt.Errorf("[%s] %w", op, ErrMissingPayload)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return result, fmt.Errorf("[%s] base64 decode error: %w", op, err)
	}
	if err := msgpack.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("[%s] msgpack unmarshal error: %w", op, err)
	}
	return result, nil
}
