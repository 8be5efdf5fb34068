package structs

import (
	"strings"
)

// AssetType categorises stored artifacts.
type AssetType string

const (
	ISO   AssetType = "iso"
	HDD   AssetType = "hdd"
	OTHER AssetType = "other"
)

func ToAssetType(s string) AssetType {
	switch strings.ToLower(s) {
	case "iso":
		return ISO
	case "hdd":
		return HDD
	case "other":
		return OTHER
	default:
		return ""
	}
}

// Asset is a named, typed artifact. Assets are many-to-many with jobs;
// the join records which job introduced the asset.
type Asset struct {
	ID   int64     `json:"id"`
	Type AssetType `json:"type"`
	Name string    `json:"name"`
}
