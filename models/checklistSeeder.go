package models

import (
	"context"
	"encoding/json"

	"github.com/sigapk3/safety_backend/config"
	"gorm.io/gorm"
)

// Default checklists from the K3 work-instruction documents (IK 6.2 APAR
// maintenance, IK 6.3 indoor/outdoor hydrant maintenance). standard_value is
// the conforming option; any other chosen option flags the asset.
var defaultChecklists = map[AssetType][]ChecklistParameter{
	AssetTypeApar: {
		{Label: "Pemeriksaan Manometer (Tekanan)", InputType: InputTypeRadio, Options: optionsJSON("Sesuai", "Tidak Sesuai"), StandardValue: strRef("Sesuai")},
		{Label: "Kondisi Segel (Safety Pin)", InputType: InputTypeRadio, Options: optionsJSON("Utuh", "Rusak/Putus"), StandardValue: strRef("Utuh")},
		{Label: "Kondisi Selang (Hose)", InputType: InputTypeRadio, Options: optionsJSON("Baik", "Retak/Bocor"), StandardValue: strRef("Baik")},
		{Label: "Kondisi Label / Penandaan", InputType: InputTypeRadio, Options: optionsJSON("Jelas", "Pudar/Rusak"), StandardValue: strRef("Jelas")},
		{Label: "Fisik Tabung", InputType: InputTypeRadio, Options: optionsJSON("Mulus", "Berkarat/Penyok"), StandardValue: strRef("Mulus")},
	},
	AssetTypeHydrant: {
		{Label: "Kelengkapan Prosedur", InputType: InputTypeRadio, Options: optionsJSON("Tersedia & Baik", "Tidak Ada/Rusak"), StandardValue: strRef("Tersedia & Baik")},
		{Label: "Kondisi Selang (Hose)", InputType: InputTypeRadio, Options: optionsJSON("Baik & Bersih", "Bocor/Kotor"), StandardValue: strRef("Baik & Bersih")},
		{Label: "Kondisi Nozzle", InputType: InputTypeRadio, Options: optionsJSON("Lengkap & Lancar", "Macet/Hilang"), StandardValue: strRef("Lengkap & Lancar")},
		{Label: "Kunci Hydrant", InputType: InputTypeRadio, Options: optionsJSON("Ada", "Hilang"), StandardValue: strRef("Ada")},
		{Label: "Uji Aliran Air (Flow Test)", InputType: InputTypeRadio, Options: optionsJSON("Bertekanan", "Tidak Keluar Air"), StandardValue: strRef("Bertekanan")},
	},
	AssetTypeP3k: {
		{Label: "Kondisi Kotak P3K", InputType: InputTypeRadio, Options: optionsJSON("Baik", "Rusak"), StandardValue: strRef("Baik")},
		{Label: "Catatan Isi Kotak", InputType: InputTypeTextarea},
	},
}

// SeedChecklistParameters inserts the default checklists for asset types that
// have none yet. Existing (possibly customized) checklists are left alone, so
// it is safe to run on every deploy.
func SeedChecklistParameters(ctx context.Context) (int, error) {
	db := config.GetDB()
	seeded := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for assetType, params := range defaultChecklists {
			var count int64
			if err := tx.Model(&ChecklistParameter{}).Where("asset_type = ?", assetType).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			for i := range params {
				row := params[i]
				row.AssetType = assetType
				row.OrderIndex = i + 1
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				seeded++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if seeded > 0 {
		keys := make([]string, 0, len(defaultChecklists))
		for assetType := range defaultChecklists {
			keys = append(keys, checklistCacheKey(assetType))
		}
		_ = config.RemoveRedisKey(keys...)
	}
	return seeded, nil
}

func optionsJSON(options ...string) json.RawMessage {
	raw, _ := json.Marshal(options)
	return raw
}

func strRef(s string) *string { return &s }
