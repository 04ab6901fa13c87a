package environ

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// Kind 字段类型
type Kind int

const (
	String Kind = iota
	Int
	Bool
	List
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case List:
		return "list"
	default:
		return "unknown"
	}
}

// ParseBool 严格解析布尔值，大小写不敏感
// true/1/yes/y/on 为真，false/0/no/n/off 和空串为假，其余取值报 ConfigurationError
func ParseBool(key, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off", "":
		return false, nil
	default:
		return false, errors.NewConfigurationErrorf(key, "invalid boolean for %s: %q", key, raw)
	}
}

// ToBool 把配置树或环境中的值转换为 bool
func ToBool(key string, v interface{}) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case int:
		return val != 0, nil
	case string:
		return ParseBool(key, val)
	default:
		return ParseBool(key, fmt.Sprint(val))
	}
}

// ToInt 把配置树或环境中的值转换为 int
func ToInt(key string, v interface{}) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val == float64(int(val)) {
			return int(val), nil
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil {
			return n, nil
		}
	}
	return 0, errors.NewConfigurationErrorf(key, "invalid integer for %s: %v", key, v)
}

// SplitList 按逗号拆分并去掉每项首尾空白，丢弃空项，结果永远非 nil
func SplitList(raw string) []interface{} {
	out := []interface{}{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ToList 把字符串或列表值统一为 []interface{}，nil 得到空列表
func ToList(v interface{}) []interface{} {
	switch val := v.(type) {
	case nil:
		return []interface{}{}
	case string:
		return SplitList(val)
	default:
		if l, ok := tree.AsList(val); ok {
			return l
		}
		return []interface{}{val}
	}
}

// Coerce 按字段类型转换取值，所有字段共用这一套规则
func Coerce(key string, kind Kind, v interface{}) (interface{}, error) {
	switch kind {
	case Int:
		if v == nil {
			return nil, nil
		}
		return ToInt(key, v)
	case Bool:
		return ToBool(key, v)
	case List:
		return ToList(v), nil
	default:
		return v, nil
	}
}
