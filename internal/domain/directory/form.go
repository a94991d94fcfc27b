package directory

import (
	"regexp"
	"strings"
)

// RequiredFields must be non-empty after trimming on both create and edit.
var RequiredFields = []string{
	"name", "email", "phoneNumber", "dob", "address",
	"aadharNumber", "panCardNumber", "bankName", "bankAccountNumber",
	"ifscCode", "employeeId", "role",
}

// UniqueFields may not collide with any other record of the current
// directory snapshot.
var UniqueFields = []string{"aadharNumber", "panCardNumber", "employeeId"}

var fieldLabels = map[string]string{
	"name":              "Name",
	"email":             "Email",
	"phoneNumber":       "Phone Number",
	"dob":               "Date of Birth",
	"address":           "Address",
	"aadharNumber":      "Aadhar Number",
	"panCardNumber":     "PAN Card Number",
	"bankName":          "Bank Name",
	"bankAccountNumber": "Bank Account Number",
	"ifscCode":          "IFSC Code",
	"employeeId":        "Employee ID",
	"role":              "Role",
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Form holds the draft field values for an employee create or edit flow
// together with its field-scoped error map. A nil editing record means
// create mode.
type Form struct {
	fields   map[string]string
	password string
	errors   map[string]string
	editing  *Record
}

func NewForm() *Form {
	f := &Form{fields: make(map[string]string), errors: make(map[string]string)}
	f.fields["role"] = "employee"
	return f
}

// FormFor starts an edit draft for an existing record. Every field is set
// explicitly so values missing in the store still validate as the form
// requires.
func FormFor(rec Record) *Form {
	f := NewForm()
	f.editing = &rec
	f.fields["name"] = rec.Name
	f.fields["email"] = rec.Email
	f.fields["phoneNumber"] = rec.PhoneNumber
	f.fields["dob"] = rec.DOB
	f.fields["address"] = rec.Address
	f.fields["aadharNumber"] = rec.AadharNumber
	f.fields["panCardNumber"] = rec.PANCardNumber
	f.fields["bankName"] = rec.BankName
	f.fields["bankAccountNumber"] = rec.BankAccountNumber
	f.fields["ifscCode"] = rec.IFSCCode
	f.fields["employeeId"] = rec.EmployeeID
	f.fields["role"] = rec.Role
	return f
}

func (f *Form) Field(name string) string { return f.fields[name] }

// SetField records a keystroke-level change. The field's error clears and,
// for uniqueness-constrained fields, the incremental duplicate check runs
// against the given snapshot using the same exclude-edited-record rule as
// Validate, so editing a record with its own value never self-flags.
func (f *Form) SetField(name, value string, snapshot []Record) {
	f.fields[name] = value
	delete(f.errors, name)

	if isUniqueField(name) && f.duplicate(name, value, snapshot) {
		f.errors[name] = fieldLabels[name] + " already exists."
	}
}

func (f *Form) SetPassword(password string) { f.password = password }
func (f *Form) Password() string            { return f.password }

func (f *Form) Editing() *Record { return f.editing }

func (f *Form) Errors() map[string]string {
	clone := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		clone[k] = v
	}
	return clone
}

// Validate runs the full pass: required fields, email format, password in
// create mode, and the cross-record uniqueness checks. It returns true iff
// the error map is empty afterwards and has no other side effects.
func (f *Form) Validate(snapshot []Record, adding bool) bool {
	errs := make(map[string]string)

	for _, name := range RequiredFields {
		if strings.TrimSpace(f.fields[name]) == "" {
			errs[name] = fieldLabels[name] + " is required."
		}
	}
	if adding && strings.TrimSpace(f.password) == "" {
		errs["password"] = "Password is required for new employee."
	}
	if email := f.fields["email"]; email != "" && !emailPattern.MatchString(email) {
		errs["email"] = "Invalid email format."
	}
	for _, name := range UniqueFields {
		if f.duplicate(name, f.fields[name], snapshot) {
			errs[name] = fieldLabels[name] + " already exists."
		}
	}

	f.errors = errs
	return len(errs) == 0
}

// Reset returns the form to a blank create draft.
func (f *Form) Reset() {
	f.fields = map[string]string{"role": "employee"}
	f.password = ""
	f.errors = make(map[string]string)
	f.editing = nil
}

// Document is the persistable shape of the draft. The password is for
// identity creation only and never part of the document.
func (f *Form) Document() map[string]any {
	data := make(map[string]any, len(f.fields))
	for k, v := range f.fields {
		data[k] = v
	}
	return data
}

func (f *Form) duplicate(name, value string, snapshot []Record) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, rec := range snapshot {
		if f.editing != nil && rec.ID == f.editing.ID {
			continue
		}
		if strings.TrimSpace(fieldOf(rec, name)) == value {
			return true
		}
	}
	return false
}

func isUniqueField(name string) bool {
	for _, u := range UniqueFields {
		if u == name {
			return true
		}
	}
	return false
}

func fieldOf(rec Record, name string) string {
	switch name {
	case "aadharNumber":
		return rec.AadharNumber
	case "panCardNumber":
		return rec.PANCardNumber
	case "employeeId":
		return rec.EmployeeID
	}
	return ""
}
