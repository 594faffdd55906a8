package models

import (
	"reflect"
	"strings"
)

// FieldInfo describes one editable StudentProfile field
type FieldInfo struct {
	Name     string // JSON name, used as the field key everywhere outside Go
	Label    string // Human readable label, also the export column header
	Text     bool   // Export as a text cell so leading zeros survive
	Centered bool   // Export with centered alignment
	Date     bool   // Holds an ISO date
	Options  []string

	index int
}

var (
	studentFields     []FieldInfo
	studentFieldIndex map[string]int
)

func init() {
	t := reflect.TypeOf(StudentProfile{})
	studentFields = make([]FieldInfo, 0, t.NumField())
	studentFieldIndex = make(map[string]int, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		info := FieldInfo{Name: name, Label: sf.Tag.Get("label"), Options: fieldOptions[name], index: i}
		for _, flag := range strings.Split(sf.Tag.Get("export"), ",") {
			switch flag {
			case "text":
				info.Text = true
			case "center":
				info.Centered = true
			case "date":
				info.Date = true
			}
		}
		studentFieldIndex[name] = len(studentFields)
		studentFields = append(studentFields, info)
	}
}

// StudentFields returns the editable fields in declaration order.
// The returned slice must not be modified.
func StudentFields() []FieldInfo {
	return studentFields
}

// LookupStudentField returns the field registered under name.
func LookupStudentField(name string) (FieldInfo, bool) {
	i, ok := studentFieldIndex[name]
	if !ok {
		return FieldInfo{}, false
	}
	return studentFields[i], true
}

// Get returns the value of the named field and whether the field exists.
func (p *StudentProfile) Get(name string) (string, bool) {
	f, ok := LookupStudentField(name)
	if !ok {
		return "", false
	}
	return reflect.ValueOf(p).Elem().Field(f.index).String(), true
}

// Set assigns value to the named field. It reports false for unknown fields.
func (p *StudentProfile) Set(name, value string) bool {
	f, ok := LookupStudentField(name)
	if !ok {
		return false
	}
	reflect.ValueOf(p).Elem().Field(f.index).SetString(value)
	return true
}

// Values returns every field keyed by JSON name.
func (p StudentProfile) Values() map[string]string {
	v := reflect.ValueOf(p)
	out := make(map[string]string, len(studentFields))
	for _, f := range studentFields {
		out[f.Name] = v.Field(f.index).String()
	}
	return out
}
