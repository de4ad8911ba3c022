package scraper

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// configToProto maps config resource type names to CDP resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// resourceFilter decides per request whether it is aborted. Document,
// script and XHR requests always continue.
type resourceFilter map[proto.NetworkResourceType]struct{}

// newResourceFilter builds a filter from config names. Unknown names are
// logged and ignored.
func newResourceFilter(names []string) resourceFilter {
	f := make(resourceFilter, len(names))
	for _, name := range names {
		rt, ok := configToProto[name]
		if !ok {
			slog.Warn("ignoring unknown blocked resource type", "type", name)
			continue
		}
		f[rt] = struct{}{}
	}
	return f
}

func (f resourceFilter) blocks(rt proto.NetworkResourceType) bool {
	_, ok := f[rt]
	return ok
}

// setupHijack installs the request filter on page. It must run before
// navigation; requests already in flight are not affected.
//
// Returns the running HijackRouter so the caller can Stop it, or nil if
// there is nothing to block.
func setupHijack(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	filter := newResourceFilter(blockedTypes)
	if len(filter) == 0 {
		return nil
	}

	router := page.HijackRequests()

	// "*" with an empty resource type intercepts everything; the handler
	// decides per request.
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if filter.blocks(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop is called.
	go router.Run()

	return router
}
