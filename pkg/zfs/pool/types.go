// pkg/zfs/pool/types.go

package pool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PoolStatus is the document printed by `zpool status -j`.
type PoolStatus struct {
	OutputVersion struct {
		Command   string `json:"command"`
		VersMajor int    `json:"vers_major"`
		VersMinor int    `json:"vers_minor"`
	} `json:"output_version"`
	Pools map[string]Pool `json:"pools"`
}

// Pool is one pool entry of `zpool status -j`.
type Pool struct {
	Name       string  `json:"name"`
	State      string  `json:"state"`
	GUID       string  `json:"pool_guid"`
	TXG        string  `json:"txg"`
	SPAVersion string  `json:"spa_version"`
	ZPLVersion string  `json:"zpl_version"`
	Status     string  `json:"status,omitempty"` // explanatory message for unhealthy pools
	Action     string  `json:"action,omitempty"`
	MsgID      string  `json:"msgid,omitempty"`
	ErrorCount Count   `json:"error_count"`
	ScanStats  *Scan   `json:"scan_stats,omitempty"`
	VDevs      VDevMap `json:"vdevs"`   // single entry: the data root
	Logs       VDevMap `json:"logs"`    // log devices
	L2Cache    VDevMap `json:"l2cache"` // cache devices
	Spares     VDevMap `json:"spares"`
}

// Scan holds scrub/resilver progress.
type Scan struct {
	Function string `json:"function"`
	State    string `json:"state"`
}

// VDev is one node of the vdev tree.
type VDev struct {
	Name           string  `json:"name"`
	VDevType       string  `json:"vdev_type"`
	GUID           string  `json:"guid,omitempty"`
	Class          string  `json:"class,omitempty"`
	State          string  `json:"state"`
	Path           string  `json:"path,omitempty"`
	PhysPath       string  `json:"phys_path,omitempty"`
	ReadErrors     Count   `json:"read_errors"`
	WriteErrors    Count   `json:"write_errors"`
	ChecksumErrors Count   `json:"checksum_errors"`
	VDevs          VDevMap `json:"vdevs,omitempty"`
}

// VDevMap is a JSON object of vdevs decoded in document order. zpool
// prints children in pool configuration order, which a Go map would lose.
type VDevMap []VDev

func (m *VDevMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("vdevs: expected object, got %v", tok)
	}

	var out VDevMap
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var v VDev
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("vdevs[%s]: %w", key, err)
		}
		if v.Name == "" {
			v.Name = key
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

func (m VDevMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(v.Name)
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Count decodes error counters printed either as strings (default) or as
// numbers (--json-int).
type Count uint64

func (c *Count) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "-" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid counter %q: %w", s, err)
	}
	*c = Count(n)
	return nil
}

// PoolProperties is the document printed by `zpool get -j`.
type PoolProperties struct {
	Pools map[string]struct {
		Name       string `json:"name"`
		Properties map[string]struct {
			Value string `json:"value"`
		} `json:"properties"`
	} `json:"pools"`
}
