package evaluator

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// StringExtension is the extension table consulted for strings and chars.
const StringExtension = "StringExtension"

// extensionTables maps receiver kinds to the extension table they use.
var extensionTables = map[ast.Kind]string{
	ast.KindString: StringExtension,
	ast.KindChar:   StringExtension,
}

// Extension is a method invoked as receiver.Name(args...).
type Extension interface {
	Invoke(in *Interpreter, node ast.Node, receiver value.Value, args []value.Value) (value.Value, error)
}

// scriptExtension is a user function declared under #extension. The
// receiver is passed as its first argument.
type scriptExtension struct {
	fn *value.Function
}

func (x scriptExtension) Invoke(in *Interpreter, node ast.Node, receiver value.Value, args []value.Value) (value.Value, error) {
	return in.callFunction(node, x.fn, append([]value.Value{receiver}, args...))
}

// NativeExtension is an extension implemented in Go over the receiver's
// string form.
type NativeExtension struct {
	Name       string
	Parameters []ast.Parameter
	Fn         func(in *Interpreter, receiver string, args []value.Value) (value.Value, error)
}

func (x NativeExtension) Invoke(in *Interpreter, node ast.Node, receiver value.Value, args []value.Value) (value.Value, error) {
	args, err := checkArguments(node, &value.Function{Name: x.Name, Parameters: x.Parameters}, args)
	if err != nil {
		return nil, err
	}
	s, err := value.ToString(receiver)
	if err != nil {
		return nil, err
	}
	return x.Fn(in, s, args)
}

// RegisterExtension adds a native extension to table, replacing any method
// of the same name.
func (in *Interpreter) RegisterExtension(table string, x NativeExtension) {
	if in.extensions[table] == nil {
		in.extensions[table] = make(map[string]Extension)
	}
	in.extensions[table][x.Name] = x
}

func (in *Interpreter) stringExtensions() map[string]map[string]Extension {
	natives := []NativeExtension{
		{Name: "Replace", Parameters: []ast.Parameter{param("original", stringType, true), param("replace", stringType, true)}, Fn: strReplace},
		{Name: "Split", Parameters: []ast.Parameter{param("separator", anyType, true)}, Fn: strSplit},
		{Name: "Length", Fn: strLength},
		{Name: "Trim", Fn: strTrim},
		{Name: "Contains", Parameters: []ast.Parameter{param("part", anyType, true)}, Fn: strContains},
		{Name: "Upper", Parameters: []ast.Parameter{param("locale", stringType, false)}, Fn: strUpper},
		{Name: "Lower", Parameters: []ast.Parameter{param("locale", stringType, false)}, Fn: strLower},
		{Name: "Title", Parameters: []ast.Parameter{param("locale", stringType, false)}, Fn: strTitle},
		{Name: "FormatNumber", Parameters: []ast.Parameter{param("locale", stringType, false)}, Fn: strFormatNumber},
		{Name: "ToUnix", Fn: strToUnix},
		{Name: "FormatDate", Parameters: []ast.Parameter{param("layout", stringType, true), param("locale", stringType, false)}, Fn: strFormatDate},
		{Name: "Markdown", Fn: strMarkdown},
	}
	table := make(map[string]Extension, len(natives))
	for _, x := range natives {
		table[x.Name] = x
	}
	return map[string]map[string]Extension{StringExtension: table}
}

// optString returns an optional string argument, or def when it is None.
func optString(v value.Value, def string) string {
	if s, ok := v.(*value.String); ok && s.Value != "" {
		return s.Value
	}
	return def
}

func nativeError(method string, err error) error {
	return perrors.New("RUN-0027", map[string]any{"Method": method, "Error": err.Error()})
}

func strReplace(_ *Interpreter, s string, args []value.Value) (value.Value, error) {
	from, err := stringArg("Replace", "original", args[0])
	if err != nil {
		return nil, err
	}
	to, err := stringArg("Replace", "replace", args[1])
	if err != nil {
		return nil, err
	}
	return &value.String{Value: strings.ReplaceAll(s, from, to)}, nil
}

// strSplit splits on a char or string separator.
func strSplit(_ *Interpreter, s string, args []value.Value) (value.Value, error) {
	sep, err := value.ToString(args[0])
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	elements := make([]value.Value, len(parts))
	for i, p := range parts {
		elements[i] = &value.String{Value: p}
	}
	return &value.Array{Elements: elements}, nil
}

func strLength(_ *Interpreter, s string, _ []value.Value) (value.Value, error) {
	return &value.Number{Value: float64(utf8.RuneCountInString(s))}, nil
}

func strTrim(_ *Interpreter, s string, _ []value.Value) (value.Value, error) {
	return &value.String{Value: strings.TrimSpace(s)}, nil
}

func strContains(_ *Interpreter, s string, args []value.Value) (value.Value, error) {
	part, err := value.ToString(args[0])
	if err != nil {
		return nil, err
	}
	return value.NativeBool(strings.Contains(s, part)), nil
}

// languageTag parses a locale, falling back to the interpreter default and
// then to English.
func (in *Interpreter) languageTag(locale string) (language.Tag, error) {
	if locale == "" {
		locale = in.Locale
	}
	if locale == "" {
		return language.English, nil
	}
	return language.Parse(locale)
}

func caser(method string, build func(language.Tag) cases.Caser) func(*Interpreter, string, []value.Value) (value.Value, error) {
	return func(in *Interpreter, s string, args []value.Value) (value.Value, error) {
		tag, err := in.languageTag(optString(args[0], ""))
		if err != nil {
			return nil, nativeError(method, err)
		}
		return &value.String{Value: build(tag).String(s)}, nil
	}
}

var (
	strUpper = caser("Upper", func(t language.Tag) cases.Caser { return cases.Upper(t) })
	strLower = caser("Lower", func(t language.Tag) cases.Caser { return cases.Lower(t) })
	strTitle = caser("Title", func(t language.Tag) cases.Caser { return cases.Title(t) })
)

// strFormatNumber groups digits the way the locale writes numbers.
func strFormatNumber(in *Interpreter, s string, args []value.Value) (value.Value, error) {
	f, err := value.ToNumber(&value.String{Value: s})
	if err != nil {
		return nil, err
	}
	tag, err := in.languageTag(optString(args[0], ""))
	if err != nil {
		return nil, nativeError("FormatNumber", err)
	}
	p := message.NewPrinter(tag)
	return &value.String{Value: p.Sprintf("%v", number.Decimal(f))}, nil
}

// strToUnix parses a date in any common layout and returns milliseconds
// since the epoch.
func strToUnix(_ *Interpreter, s string, _ []value.Value) (value.Value, error) {
	t, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return nil, nativeError("ToUnix", err)
	}
	return &value.Number{Value: float64(t.UnixMilli())}, nil
}

// strFormatDate reformats a date with a Go reference layout, naming months
// and weekdays in the locale's language.
func strFormatDate(in *Interpreter, s string, args []value.Value) (value.Value, error) {
	layout, err := stringArg("FormatDate", "layout", args[0])
	if err != nil {
		return nil, err
	}
	t, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return nil, nativeError("FormatDate", err)
	}
	locale := mondayLocale(optString(args[1], in.Locale))
	return &value.String{Value: monday.Format(t, layout, locale)}, nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func strMarkdown(_ *Interpreter, s string, _ []value.Value) (value.Value, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return nil, nativeError("Markdown", err)
	}
	return &value.String{Value: buf.String()}, nil
}

// mondayLocale maps a locale string to a monday.Locale. Unknown locales
// fall back to their language, then to US English.
func mondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
	localeMap := map[string]monday.Locale{
		"en":    monday.LocaleEnUS,
		"en_us": monday.LocaleEnUS,
		"en_gb": monday.LocaleEnGB,
		"de":    monday.LocaleDeDE,
		"de_de": monday.LocaleDeDE,
		"fr":    monday.LocaleFrFR,
		"fr_fr": monday.LocaleFrFR,
		"fr_ca": monday.LocaleFrCA,
		"es":    monday.LocaleEsES,
		"es_es": monday.LocaleEsES,
		"it":    monday.LocaleItIT,
		"it_it": monday.LocaleItIT,
		"pt":    monday.LocalePtPT,
		"pt_pt": monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"nl":    monday.LocaleNlNL,
		"nl_nl": monday.LocaleNlNL,
		"ru":    monday.LocaleRuRU,
		"ru_ru": monday.LocaleRuRU,
		"pl":    monday.LocalePlPL,
		"pl_pl": monday.LocalePlPL,
		"sv":    monday.LocaleSvSE,
		"sv_se": monday.LocaleSvSE,
		"ja":    monday.LocaleJaJP,
		"ja_jp": monday.LocaleJaJP,
		"zh":    monday.LocaleZhCN,
		"zh_cn": monday.LocaleZhCN,
		"uk":    monday.LocaleUkUA,
		"uk_ua": monday.LocaleUkUA,
	}
	if loc, ok := localeMap[locale]; ok {
		return loc
	}
	if lang, _, found := strings.Cut(locale, "_"); found {
		if loc, ok := localeMap[lang]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}
