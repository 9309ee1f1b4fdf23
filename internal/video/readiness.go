package video

// readiness collects the three signals the plugin gives while loading. None
// of them is reliable alone; the adapter is Ready only when all have fired.
type readiness struct {
	prepareCallback bool
	pluginReady     bool
	// bufferingSettled assumes buffering already completed until a
	// buffering start is seen during loading.
	bufferingSettled bool
}

func newReadiness() readiness {
	return readiness{bufferingSettled: true}
}

func (r readiness) complete() bool {
	return r.prepareCallback && r.pluginReady && r.bufferingSettled
}
