package mqtt

import (
	"log"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

// ClientID derives a stable client identifier from the host's machine ID,
// hashed with app so the raw ID never leaves the machine. If no machine ID
// is available a random one is used for this run.
func ClientID(app string) string {
	id, err := machineid.ProtectedID(app)
	if err != nil {
		log.Printf("mqtt: machine id unavailable (%v), using random client id", err)
		return app + "-" + uuid.NewString()[:12]
	}
	return app + "-" + id[:12]
}
