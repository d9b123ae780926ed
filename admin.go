package muxlink

import (
	"fmt"
	"net/http"

	"tailscale.com/tsweb"
)

// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP mux
// served at /debug/. These routes are accessible only over localhost/via
// Tailscale and are not publicly accessible.
func (m *Mux) AttachAdminRoutes(hmux *http.ServeMux) {
	debug := tsweb.Debugger(hmux)

	// Point-in-time view of every endpoint and channel: status, readiness
	// flags, ring occupancy, and overflow drop totals.
	debug.HandleFunc("mux-status", "muxed serial channel status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		fmt.Fprintf(w, "mux %s\n\n", m.ID)

		for _, e := range m.endpoints.snapshot() {
			bound := "unbound"
			if e.initDone.Load() {
				bound = "initialized"
			} else {
				m.endpoints.mu.Lock()
				if e.hw != nil {
					bound = "bound"
				}
				m.endpoints.mu.Unlock()
			}
			fmt.Fprintf(w, "endpoint %d: %s rx=%d/%d dropped=%d\n",
				e.index, bound, e.rx.Len(), e.rx.Capacity(), e.RxDropped())
		}

		fmt.Fprintln(w)

		for _, c := range m.registry.Channels() {
			c.mu.Lock()
			inUse := c.inUse
			st := c.status
			addr := -1
			if c.ach != nil {
				addr = c.ach.Address()
			}
			flags := fmt.Sprintf("rx_enabled=%t tx_enabled=%t rx_ready=%t tx_ready=%t",
				c.rxEnabled, c.txEnabled, c.rxReady, c.txReady)
			c.mu.Unlock()

			if !inUse {
				fmt.Fprintf(w, "channel %d: free\n", c.id)
				continue
			}
			rxDrop, txDrop := c.Dropped()
			fmt.Fprintf(w, "channel %d: addr=%d status=%s %s rx=%d/%d tx=%d/%d dropped rx=%d tx=%d\n",
				c.id, addr, st, flags,
				c.rx.Len(), c.rx.Capacity(), c.tx.Len(), c.tx.Capacity(),
				rxDrop, txDrop)
		}
	})
}
