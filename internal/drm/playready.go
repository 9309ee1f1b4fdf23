package drm

import (
	"context"
	"encoding/json"

	"go2tv.app/tizenbridge/internal/adapters"
)

type PlayReadyHook struct {
	*base
	client PlayReadyClient
}

type playReadyProperties struct {
	DeleteLicenseAfterUse bool   `json:"DeleteLicenseAfterUse"`
	CustomData            string `json:"CustomData,omitempty"`
	LicenseServer         string `json:"LicenseServer,omitempty"`
}

func (h *PlayReadyHook) Prepare(ctx context.Context) error {
	if err := h.prepareClient(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(playReadyProperties{
		DeleteLicenseAfterUse: true,
		CustomData:            h.client.CustomData(),
		LicenseServer:         h.client.LicenseServer(),
	})
	if err != nil {
		return err
	}

	h.setProperties(adapters.DRMOperationSetProperties, string(payload))
	return nil
}
