package model

// Feature is a capability exposed by a device type's feature manager.
type Feature struct {
	ID              int             `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DeviceType      string          `json:"deviceType,omitempty"`
	MetadataEntries []MetadataEntry `json:"metadataEntries,omitempty"`
}

// MetadataEntry is an opaque value attached to a feature.
type MetadataEntry struct {
	ID    int `json:"id"`
	Value any `json:"value"`
}
