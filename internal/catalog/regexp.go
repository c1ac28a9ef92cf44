package catalog

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"modernc.org/sqlite"

	"github.com/altinukshini/hepc-tui/internal/filter"
)

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// compiled caches patterns across rows; a query evaluates the same pattern
// once per row.
var compiled *lru.Cache[string, compiledPattern]

func init() {
	var err error
	compiled, err = lru.New[string, compiledPattern](256)
	if err != nil {
		panic(err)
	}
	sqlite.MustRegisterDeterministicScalarFunction(filter.RegexpFunc, 2, regexpFunc)
}

// regexpFunc implements regexp(pattern, value). NULL values and malformed
// patterns never match; neither is reported as an SQL error.
func regexpFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok := textOf(args[0])
	if !ok {
		return int64(0), nil
	}
	value, ok := textOf(args[1])
	if !ok {
		return int64(0), nil
	}
	re, err := compile(pattern)
	if err != nil {
		return int64(0), nil
	}
	if re.MatchString(value) {
		return int64(1), nil
	}
	return int64(0), nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	if c, ok := compiled.Get(pattern); ok {
		return c.re, c.err
	}
	re, err := regexp.Compile(pattern)
	compiled.Add(pattern, compiledPattern{re: re, err: err})
	return re, err
}

// textOf renders a driver value the way the catalog displays it. The second
// result is false for NULL.
func textOf(v driver.Value) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	default:
		return fmt.Sprint(x), true
	}
}
