package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const machineIDLen = 12

// MachineID retrieves an ID identifying the machine, hashed so the raw
// machine ID never shows up in topics. It's empty if unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID("siobridge")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return ""
	}
	if len(id) > machineIDLen {
		id = id[:machineIDLen]
	}
	return id
}
