package domain

import "fmt"

const (
	LocaleEnglish    = "en"
	LocalePortuguese = "pt"
)

// Messages renders the fixed error templates for one locale. Portuguese
// templates agree in gender with the resource noun.
type Messages struct {
	locale string
}

// NewMessages returns the catalog for locale, falling back to English.
func NewMessages(locale string) Messages {
	if locale != LocalePortuguese {
		locale = LocaleEnglish
	}
	return Messages{locale: locale}
}

// Locale returns the effective locale.
func (m Messages) Locale() string { return m.locale }

func (m Messages) NotFound(n Noun) *Error {
	if m.locale == LocalePortuguese {
		return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s não %s", n.Singular, gendered(n, "encontrado", "encontrada"))}
	}
	return &Error{Kind: ErrNotFound, Message: n.Singular + " not found"}
}

func (m Messages) NotFoundMany(n Noun) *Error {
	if m.locale == LocalePortuguese {
		return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s não %s", n.Plural, gendered(n, "encontrados", "encontradas"))}
	}
	return &Error{Kind: ErrNotFound, Message: n.Plural + " not found"}
}

func (m Messages) Forbidden(n Noun) *Error {
	if m.locale == LocalePortuguese {
		return &Error{Kind: ErrForbidden, Message: fmt.Sprintf("você não tem permissão para alterar %s %s", gendered(n, "este", "esta"), n.Singular)}
	}
	return &Error{Kind: ErrForbidden, Message: "you are not allowed to modify this " + n.Singular}
}

func (m Messages) ForbiddenMany(n Noun) *Error {
	if m.locale == LocalePortuguese {
		return &Error{Kind: ErrForbidden, Message: fmt.Sprintf("você não tem permissão para alterar %s %s", gendered(n, "estes", "estas"), n.Plural)}
	}
	return &Error{Kind: ErrForbidden, Message: "you are not allowed to modify these " + n.Plural}
}

// MissingField is raised when a web master creates a record without a tenant.
func (m Messages) MissingField() *Error {
	if m.locale == LocalePortuguese {
		return NewValidationError("o campo não pode estar vazio")
	}
	return NewValidationError("field must not be empty")
}

// SearchParity is raised when structured filter arrays differ in length.
func (m Messages) SearchParity() *Error {
	if m.locale == LocalePortuguese {
		return NewValidationError("a busca deve especificar o mesmo número de valores e campos")
	}
	return NewValidationError("the search query must specify the same number of values as fields")
}

func (m Messages) Required(attr string) *Error {
	if m.locale == LocalePortuguese {
		return NewValidationError(attr + " não pode estar vazio")
	}
	return NewValidationError(attr + " must not be empty")
}

func (m Messages) EmptyIDs() *Error {
	if m.locale == LocalePortuguese {
		return NewValidationError("ids não pode estar vazio")
	}
	return NewValidationError("ids must not be empty")
}

func (m Messages) UnknownSort(field string) *Error {
	if m.locale == LocalePortuguese {
		return NewValidationError(fmt.Sprintf("não é possível ordenar por %q", field))
	}
	return NewValidationError(fmt.Sprintf("cannot sort by %q", field))
}

func (m Messages) UnknownFilter(field string) *Error {
	if m.locale == LocalePortuguese {
		return NewValidationError(fmt.Sprintf("não é possível filtrar por %q", field))
	}
	return NewValidationError(fmt.Sprintf("cannot filter by %q", field))
}

func (m Messages) InvalidAttribute(attr string) *Error {
	if m.locale == LocalePortuguese {
		return NewValidationError(fmt.Sprintf("atributo inválido %q", attr))
	}
	return NewValidationError(fmt.Sprintf("invalid attribute %q", attr))
}

func gendered(n Noun, masculine, feminine string) string {
	if n.Feminine {
		return feminine
	}
	return masculine
}
