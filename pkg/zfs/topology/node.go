// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package topology renders a pool's redundancy tree (root, vdev group,
// device) into the status document served by the API. The tree is walked
// with an explicit stack; every node below the data root gets a
// report-local synthetic ID and device nodes are decorated with the
// lifecycle actions valid at their position.
package topology

// Category is one of the four roles a pool root can play.
type Category string

const (
	CategoryData   Category = "data"
	CategoryCache  Category = "cache"
	CategorySpares Category = "spares"
	CategoryLogs   Category = "logs"
)

// Categories lists the roots in report order.
var Categories = []Category{CategoryData, CategoryCache, CategorySpares, CategoryLogs}

// auxiliary reports whether c is a spares, cache or logs category.
func (c Category) auxiliary() bool {
	return c == CategorySpares || c == CategoryCache || c == CategoryLogs
}

// Counters are the per-node error counters reported by zpool status.
type Counters struct {
	ReadErrors     uint64 `json:"read_errors"`
	WriteErrors    uint64 `json:"write_errors"`
	ChecksumErrors uint64 `json:"checksum_errors"`
}

// PoolNode is implemented by *RootNode, *GroupNode and *DeviceNode only.
type PoolNode interface {
	poolNode()
}

// RootNode heads one category. Data roots carry the pool name, the others
// their category name.
type RootNode struct {
	Name   string
	Status string
	Counters
	Children []PoolNode
}

// GroupNode is a redundancy unit: mirror, raidz, stripe, or the nested
// spare/replacing constructs.
type GroupNode struct {
	Name   string
	Status string
	Counters
	Children []PoolNode
	Category Category
}

// DeviceNode is a leaf vdev. Disk names the backing disk in inventory and
// may not resolve.
type DeviceNode struct {
	DeviceName string
	Label      string
	Status     string
	Counters
	Disk      string
	Replacing bool
}

func (*RootNode) poolNode()   {}
func (*GroupNode) poolNode()  {}
func (*DeviceNode) poolNode() {}

// PoolDescription is the backend's view of a pool. Absent categories are
// nil.
type PoolDescription struct {
	Name   string
	Status string
	Data   *RootNode
	Cache  *RootNode
	Spares *RootNode
	Logs   *RootNode
}

// Root returns the root node for c, or nil.
func (p *PoolDescription) Root(c Category) *RootNode {
	switch c {
	case CategoryData:
		return p.Data
	case CategoryCache:
		return p.Cache
	case CategorySpares:
		return p.Spares
	case CategoryLogs:
		return p.Logs
	}
	return nil
}

// IDSource hands out synthetic IDs for one report. It is never shared
// between requests.
type IDSource struct {
	next int64
}

func NewIDSource(start int64) *IDSource {
	return &IDSource{next: start}
}

// Next returns the current ID and advances.
func (s *IDSource) Next() int64 {
	n := s.next
	s.next++
	return n
}
