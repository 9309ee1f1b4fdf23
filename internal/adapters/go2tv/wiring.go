package go2tv

import (
	"context"

	"go2tv.app/go2tv/v2/devices"
	"go2tv.app/go2tv/v2/soapcalls"

	"go2tv.app/tizenbridge/internal/adapters"
)

// Bundle wires all external go2tv-backed adapters in one place.
type Bundle struct {
	Discovery   adapters.Discovery
	DLNAFactory adapters.DLNAFactory
}

func NewBundle() Bundle {
	return Bundle{
		Discovery:   DiscoveryAdapter{},
		DLNAFactory: DLNAFactory{},
	}
}

type DiscoveryAdapter struct{}

func (DiscoveryAdapter) LoadAllDevices(delaySeconds int) ([]devices.Device, error) {
	return devices.LoadAllDevices(delaySeconds)
}

type DLNAFactory struct{}

func (DLNAFactory) NewTVPayload(o *soapcalls.Options) (adapters.DLNAPayload, error) {
	payload, err := soapcalls.NewTVPayload(o)
	if err != nil {
		return nil, err
	}

	return &DLNAPayloadAdapter{payload: payload}, nil
}

type DLNAPayloadAdapter struct {
	payload *soapcalls.TVPayload
}

func (d *DLNAPayloadAdapter) SendtoTV(action string) error {
	return d.payload.SendtoTV(action)
}

func (d *DLNAPayloadAdapter) GetTransportInfo() ([]string, error) {
	return d.payload.GetTransportInfo()
}

func (d *DLNAPayloadAdapter) GetPositionInfo() ([]string, error) {
	return d.payload.GetPositionInfo()
}

func (d *DLNAPayloadAdapter) Seek(reltime string) error {
	return d.payload.SeekSoapCall(reltime)
}

func (d *DLNAPayloadAdapter) ListenAddress() string {
	return d.payload.ListenAddress()
}

func (d *DLNAPayloadAdapter) SetContext(ctx context.Context) {
	d.payload.SetContext(ctx)
}

func (d *DLNAPayloadAdapter) SetMediaURL(mediaURL string) {
	d.payload.MediaURL = mediaURL
}

func (d *DLNAPayloadAdapter) RawPayload() *soapcalls.TVPayload {
	return d.payload
}

var (
	_ adapters.Discovery   = DiscoveryAdapter{}
	_ adapters.DLNAFactory = DLNAFactory{}
)
