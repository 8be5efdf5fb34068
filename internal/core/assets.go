package core

import (
	stderrors "errors"
	"fmt"
	"log"
	"strings"

	"github.com/B-Rich/openQA/pkg/errors"
	"github.com/B-Rich/openQA/pkg/structs"
)

// assetTypeForKey maps a settings key to the asset type it references.
// Keys that don't name an asset return false.
func assetTypeForKey(key string) (structs.AssetType, bool) {
	if key == "ISO" {
		return structs.ISO, true
	}
	for prefix, t := range map[string]structs.AssetType{
		"ISO_":   structs.ISO,
		"HDD_":   structs.HDD,
		"ASSET_": structs.OTHER,
	} {
		if strings.HasPrefix(key, prefix) && isDigits(key[len(prefix):]) {
			return t, true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// registerAssets resolves every asset named in the job's settings and links
// it to the job. A chained ancestor may have published a private variant of
// the asset (prefixed with its zero-padded id); the nearest ancestor's wins
// over the public name. An asset nobody has yet is registered under the
// public name with this job marked as its creator.
func (c *Service) registerAssets(job *structs.Job) error {
	ancestors, err := c.chainedAncestors(job.ID)
	if err != nil {
		return err
	}

	for key, value := range job.Settings {
		atype, ok := assetTypeForKey(key)
		if !ok || value == "" {
			continue
		}
		if strings.ContainsAny(value, "/\\") {
			log.Printf("job %d: ignoring asset %s=%q: path separators not allowed", job.ID, key, value)
			continue
		}

		asset, createdBy, err := c.resolveAsset(atype, value, ancestors)
		if err != nil {
			return err
		}
		err = c.db.LinkJobAsset(job.ID, asset.ID, createdBy)
		if err != nil {
			return err
		}
	}
	return nil
}

// resolveAsset returns the asset a name refers to, preferring private
// variants published by chained ancestors (nearest first). The bool is true
// when the asset didn't exist and the current job is recorded as creating it.
func (c *Service) resolveAsset(t structs.AssetType, name string, ancestors []int64) (*structs.Asset, bool, error) {
	for _, ancestorID := range ancestors {
		private := fmt.Sprintf("%08d-%s", ancestorID, name)
		asset, err := c.db.Asset(t, private)
		if err == nil {
			return asset, false, nil
		}
		if !stderrors.Is(err, errors.ErrNotFound) {
			return nil, false, err
		}
	}

	asset, err := c.db.Asset(t, name)
	if err == nil {
		return asset, false, nil
	}
	if !stderrors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	asset, err = c.db.EnsureAsset(t, name)
	if err != nil {
		return nil, false, err
	}
	return asset, true, nil
}

// chainedAncestors walks chained edges upwards and returns every ancestor
// id, nearest first. Parallel edges don't pass assets along.
func (c *Service) chainedAncestors(jobID int64) ([]int64, error) {
	seen := map[int64]bool{jobID: true}
	order := []int64{}
	frontier := []int64{jobID}

	for len(frontier) > 0 {
		next := []int64{}
		for _, id := range frontier {
			parents, err := c.db.ParentsOf(id)
			if err != nil {
				return nil, err
			}
			for _, edge := range parents {
				if edge.Kind != structs.CHAINED || seen[edge.ParentID] {
					continue
				}
				seen[edge.ParentID] = true
				order = append(order, edge.ParentID)
				next = append(next, edge.ParentID)
			}
		}
		frontier = next
	}
	return order, nil
}
