package model

// DeviceType is a registered device type and its meta definition.
type DeviceType struct {
	ID                       int                       `json:"id"`
	Name                     string                    `json:"name"`
	DeviceTypeMetaDefinition *DeviceTypeMetaDefinition `json:"deviceTypeMetaDefinition,omitempty"`
}

// DeviceTypeMetaDefinition bundles the configuration attached to a device
// type. InitialOperationConfig and the push notification properties are
// internal and stripped by Redacted.
type DeviceTypeMetaDefinition struct {
	Properties              []string                `json:"properties,omitempty"`
	Features                []Feature               `json:"features,omitempty"`
	Claimable               bool                    `json:"claimable"`
	PushNotificationConfig  *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
	PolicyMonitoringEnabled bool                    `json:"policyMonitoringEnabled"`
	InitialOperationConfig  *InitialOperationConfig `json:"initialOperationConfig,omitempty"`
	License                 *License                `json:"license,omitempty"`
	Description             string                  `json:"description,omitempty"`
}

// PushNotificationConfig names the push provider of a device type.
type PushNotificationConfig struct {
	Type       string            `json:"type"`
	Scheduled  bool              `json:"scheduled"`
	Properties map[string]string `json:"properties,omitempty"`
}

// InitialOperationConfig lists operations queued when a device enrolls.
type InitialOperationConfig struct {
	Operations []string `json:"operations"`
}

// License is the end user license shown on enrollment.
type License struct {
	Provider string `json:"provider,omitempty"`
	Name     string `json:"name,omitempty"`
	Version  string `json:"version,omitempty"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text,omitempty"`
}

// DeviceTypeList is the counted payload of GET /device-types.
type DeviceTypeList struct {
	Count int      `json:"count"`
	List  []string `json:"deviceTypes"`
}

// Redacted returns a copy that is safe to expose to end users: the initial
// operation config is dropped and the push notification config keeps only its
// type. d itself is left untouched.
func (d *DeviceType) Redacted() *DeviceType {
	if d == nil {
		return nil
	}
	out := *d
	if d.DeviceTypeMetaDefinition == nil {
		return &out
	}
	meta := *d.DeviceTypeMetaDefinition
	meta.InitialOperationConfig = nil
	if meta.PushNotificationConfig != nil {
		meta.PushNotificationConfig = &PushNotificationConfig{
			Type: meta.PushNotificationConfig.Type,
		}
	}
	out.DeviceTypeMetaDefinition = &meta
	return &out
}
