package drm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go2tv.app/tizenbridge/internal/adapters"
)

type VerimatrixHook struct {
	*base
	client VerimatrixClient
}

type verimatrixProperties struct {
	CompanyName           string `json:"CompanyName"`
	Web                   string `json:"Web"`
	IPTV                  string `json:"IPTV"`
	DeleteLicenseAfterUse bool   `json:"DeleteLicenseAfterUse"`
}

// init queries the device UID before the client may initialise.
func (h *VerimatrixHook) init(ctx context.Context) error {
	var err error
	if h.higherThan5 {
		_, err = h.plugin.UID(adapters.DRMTypeVerimatrix)
	} else {
		_, err = h.plugin.SetDRM(adapters.DRMTypeVerimatrix, adapters.DRMOperationGetUID, "")
	}
	if err != nil {
		return fmt.Errorf("verimatrix uid: %w", err)
	}
	return h.client.Init(ctx)
}

func (h *VerimatrixHook) Prepare(ctx context.Context) error {
	if err := h.prepareClient(ctx); err != nil {
		return err
	}

	params := h.client.Params()
	payload, err := json.Marshal(verimatrixProperties{
		CompanyName:           params.Company,
		Web:                   params.Address,
		IPTV:                  params.IPTV,
		DeleteLicenseAfterUse: true,
	})
	if err != nil {
		return err
	}

	operation := adapters.DRMOperationInitialize
	if h.higherThan5 {
		operation = adapters.DRMOperationSetProperties
	}
	h.setProperties(operation, string(payload))
	return nil
}

// OnAVPlayEvent raises DrmError events from the plugin.
func (h *VerimatrixHook) OnAVPlayEvent(data map[string]any) {
	if name, _ := data["name"].(string); name != "DrmError" {
		return
	}

	parts := []string{"Verimatrix error"}
	for _, key := range []string{"code", "message"} {
		if v, ok := data[key]; ok && v != nil {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	h.emit(errors.New(strings.Join(parts, " ")))
}
