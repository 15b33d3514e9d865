package forms

// NonFieldKey holds errors that do not belong to a single input.
const NonFieldKey = "_form"

// Errors maps a form field name to its first validation message.
type Errors map[string]string

// Add records msg for field unless the field already has an error.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Get(field string) string {
	return e[field]
}

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

// NonField returns the form-level error, if any.
func (e Errors) NonField() string {
	return e[NonFieldKey]
}
