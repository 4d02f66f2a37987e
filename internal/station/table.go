package station

import (
	"errors"
	"strings"
)

// errEmptyTable is returned when a station table document yields no entries
var errEmptyTable = errors.New("station table contains no entries")

// ParseTable parses the provider's station_name.js resource.
//
// The document assigns a single string to a JavaScript variable:
//
//	var station_names ='@bjb|北京北|VAP|beijingbei|bjb|0@bjd|北京东|BOP|...';
//
// Records are separated by '@' and fields by '|'; field 1 is the display
// name and field 2 the station code. Records with fewer than five fields
// are skipped.
func ParseTable(doc string) (map[string]string, error) {
	_, value, found := strings.Cut(doc, "=")
	if !found {
		return nil, errors.New("station table has no assignment")
	}
	value = strings.Trim(strings.TrimSpace(value), "'\";\n\r ")

	codes := make(map[string]string)
	for _, record := range strings.Split(value, "@") {
		if record == "" {
			continue
		}
		parts := strings.Split(record, "|")
		if len(parts) < 5 {
			continue
		}
		name, code := strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
		if name == "" || code == "" {
			continue
		}
		codes[name] = code
	}

	if len(codes) == 0 {
		return nil, errEmptyTable
	}
	return codes, nil
}

// fallbackCodes covers major stations when the bulk table cannot be fetched
var fallbackCodes = map[string]string{
	"北京":  "BJP",
	"上海":  "SHH",
	"广州":  "GZQ",
	"深圳":  "SZQ",
	"杭州":  "HZH",
	"南京":  "NJH",
	"武汉":  "WHN",
	"西安":  "XAY",
	"成都":  "CDW",
	"重庆":  "CQW",
	"天津":  "TJP",
	"长沙":  "CSQ",
	"郑州":  "ZZF",
	"济南":  "JNK",
	"青岛":  "QDK",
	"大连":  "DLT",
	"沈阳":  "SYT",
	"哈尔滨": "HBB",
	"长春":  "CCT",
	"太子城": "TZC",
	"清河":  "QIP",
}

// FallbackCode looks a station up in the built-in table
func FallbackCode(name string) (string, bool) {
	code, ok := fallbackCodes[name]
	return code, ok
}
