package settings

type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindPassword FieldKind = "password"
)

type Field struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Kind        FieldKind `json:"kind"`
	Description string    `json:"description,omitempty"`
}

// Section is a group of fields rendered together on the settings form.
type Section struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	// KeepEmpty stores submitted empty values instead of ignoring them,
	// which lets a user clear a credential.
	KeepEmpty bool `json:"-"`
}

// Provider is implemented by sources that contribute a settings section.
type Provider interface {
	SettingsSection() Section
}
