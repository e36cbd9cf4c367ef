package eval

import (
	"strings"
	"time"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

func init() {
	registerBuiltin("tojson", 0, builtinTojson)
	registerBuiltin("fromjson", 0, builtinFromjson)
	registerBuiltin("env", 0, builtinEnv)
	registerBuiltin("input", 0, builtinInput)
	registerBuiltin("inputs", 0, builtinInputs)
	registerBuiltin("halt", 0, builtinHalt)
	registerBuiltin("halt_error", 0, builtinHaltError0)
	registerBuiltin("halt_error", 1, builtinHaltError1)
	registerBuiltin("mktime", 0, builtinMktime)
	registerBuiltin("gmtime", 0, builtinGmtime)
	registerBuiltin("localtime", 0, builtinLocaltime)
	registerBuiltin("strftime", 1, builtinStrftime)
	registerBuiltin("strptime", 1, builtinStrptime)
	registerBuiltin("todate", 0, builtinTodate)
	registerBuiltin("fromdate", 0, builtinFromdate)
	registerBuiltin("fromdateiso8601", 0, builtinFromdate)
	registerBuiltin("todateiso8601", 0, builtinTodate)
}

func builtinTojson(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.String(value.ToJSON(input, ""))}, nil
}

func builtinFromjson(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("fromjson input must be a string")
	}
	v, err := value.FromJSON(input.Str())
	if err != nil {
		return nil, errors.Runtime("%s: %v", input.Str(), err)
	}
	return []value.Value{v}, nil
}

func builtinEnv(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{env.ProcessEnv()}, nil
}

func builtinInput(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	v, ok := sc.NextInput()
	if !ok {
		return nil, errors.Runtime("No more inputs")
	}
	return []value.Value{v}, nil
}

func builtinInputs(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	var out []value.Value
	for {
		v, ok := sc.NextInput()
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func builtinHalt(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return nil, errors.NewHalt(0, "")
}

func builtinHaltError0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() == value.KindString {
		return nil, errors.NewHalt(5, input.Str())
	}
	return nil, errors.NewHalt(5, value.ToJSON(input, ""))
}

func builtinHaltError1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	codes, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	code := 5
	if len(codes) > 0 && codes[0].Kind() == value.KindNumber {
		code = int(codes[0].Int())
	}
	if input.Kind() == value.KindString {
		return nil, errors.NewHalt(code, input.Str())
	}
	return nil, errors.NewHalt(code, value.ToJSON(input, ""))
}

// brokenDownTime mirrors the 8-element array gmtime/mktime/strptime trade
// in jq: [seconds, minutes, hours, day-of-month, month(0-based), year-1900
// is NOT used here -- jq actually emits the full year, not an offset;
// seconds carries a fractional part, and the final two elements are
// day-of-week and day-of-year.
func brokenDownTime(t time.Time) value.Value {
	return value.Array(
		value.Float(float64(t.Second())+float64(t.Nanosecond())/1e9),
		value.Int(int64(t.Minute())),
		value.Int(int64(t.Hour())),
		value.Int(int64(t.Day())),
		value.Int(int64(t.Month()-1)),
		value.Int(int64(t.Year())),
		value.Int(int64(t.Weekday())),
		value.Int(int64(t.YearDay()-1)),
	)
}

func timeFromBrokenDown(v value.Value) (time.Time, error) {
	if v.Kind() != value.KindArray || v.Len() < 6 {
		return time.Time{}, errors.TypeError("not a valid broken-down time")
	}
	e := v.Elements()
	sec := e[0].Number()
	return time.Date(int(e[5].Int()), time.Month(int(e[4].Int())+1), int(e[3].Int()),
		int(e[2].Int()), int(e[1].Int()), int(sec), int((sec-float64(int(sec)))*1e9), time.UTC), nil
}

func builtinMktime(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	t, err := timeFromBrokenDown(input)
	if err != nil {
		return nil, err
	}
	return []value.Value{value.Int(t.Unix())}, nil
}

func builtinGmtime(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindNumber {
		return nil, errors.TypeError("gmtime requires a number")
	}
	sec := input.Number()
	t := time.Unix(int64(sec), int64((sec-float64(int64(sec)))*1e9)).UTC()
	return []value.Value{brokenDownTime(t)}, nil
}

func builtinLocaltime(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindNumber {
		return nil, errors.TypeError("localtime requires a number")
	}
	sec := input.Number()
	t := time.Unix(int64(sec), int64((sec-float64(int64(sec)))*1e9)).Local()
	return []value.Value{brokenDownTime(t)}, nil
}

func builtinStrftime(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	var t time.Time
	if input.Kind() == value.KindNumber {
		t = time.Unix(int64(input.Number()), 0).UTC()
	} else {
		tt, err := timeFromBrokenDown(input)
		if err != nil {
			return nil, err
		}
		t = tt
	}
	formats, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, f := range formats {
		if f.Kind() != value.KindString {
			return nil, errors.TypeError("strftime format must be a string")
		}
		out = append(out, value.String(t.Format(strftimeToGo(f.Str()))))
	}
	return out, nil
}

func builtinStrptime(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("strptime input must be a string")
	}
	formats, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, f := range formats {
		if f.Kind() != value.KindString {
			return nil, errors.TypeError("strptime format must be a string")
		}
		t, err := time.Parse(strftimeToGo(f.Str()), input.Str())
		if err != nil {
			return nil, errors.Runtime("date %q does not match format %q", input.Str(), f.Str())
		}
		out = append(out, brokenDownTime(t.UTC()))
	}
	return out, nil
}

// strftimeToGo translates the small set of strftime directives jq's
// date/time builtins use (%Y %m %d %H %M %S %Z %z %e %T %A %a %B %b %%)
// into Go's reference-time layout.
func strftimeToGo(format string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02", "%H", "15", "%M", "04",
		"%S", "05", "%Z", "MST", "%z", "-0700", "%e", "_2", "%T", "15:04:05",
		"%A", "Monday", "%a", "Mon", "%B", "January", "%b", "Jan",
		"%%", "%",
	)
	return replacer.Replace(format)
}

const isoFormat = "2006-01-02T15:04:05Z"

func builtinTodate(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindNumber {
		return nil, errors.TypeError("todate requires a number")
	}
	t := time.Unix(int64(input.Number()), 0).UTC()
	return []value.Value{value.String(t.Format(isoFormat))}, nil
}

func builtinFromdate(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("fromdate requires a string")
	}
	t, err := time.Parse(isoFormat, input.Str())
	if err != nil {
		return nil, errors.Runtime("date %q does not match ISO 8601 format", input.Str())
	}
	return []value.Value{value.Int(t.Unix())}, nil
}
