package hal

import (
	"sort"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
)

// OrderedMapItem is a key-value pair for an item in an OrderedMap.
type OrderedMapItem struct {
	Key   string
	Value interface{}
}

// OrderedMap represents a JSON object that maintains the order of its members. It's more or less
// just a list that serializes to a JSON object.
type OrderedMap struct {
	items []OrderedMapItem
}

// NewOrderedMap creates a new ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{}
}

// NewOrderedMapWithCapacity creates a new, empty ordered map with room for n items.
func NewOrderedMapWithCapacity(n int) *OrderedMap {
	return &OrderedMap{
		items: make([]OrderedMapItem, 0, n),
	}
}

// Append appends a key-value pair to the map. It is the caller's responsibility to make sure the
// key doesn't already exist in the map.
func (m *OrderedMap) Append(key string, value interface{}) {
	m.items = append(m.items, OrderedMapItem{
		Key:   key,
		Value: value,
	})
}

// Prepend inserts a key-value pair at the front of the map. It is the caller's responsibility to
// make sure the key doesn't already exist in the map.
func (m *OrderedMap) Prepend(key string, value interface{}) {
	m.items = append([]OrderedMapItem{{Key: key, Value: value}}, m.items...)
}

// Put replaces the value of an existing key in place, or appends the pair if the key doesn't exist
// yet. It returns true if a value was replaced.
func (m *OrderedMap) Put(key string, value interface{}) bool {
	for i := range m.items {
		if m.items[i].Key == key {
			m.items[i].Value = value
			return true
		}
	}
	m.Append(key, value)
	return false
}

// Get returns the value for a key.
func (m *OrderedMap) Get(key string) (interface{}, bool) {
	for _, item := range m.items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Delete removes a key from the map. It returns false if the key didn't exist.
func (m *OrderedMap) Delete(key string) bool {
	for i, item := range m.items {
		if item.Key == key {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns the keys of the map in order.
func (m *OrderedMap) Keys() []string {
	ret := make([]string, len(m.items))
	for i, item := range m.items {
		ret[i] = item.Key
	}
	return ret
}

// SortKeys sorts the map's items lexicographically by key.
func (m *OrderedMap) SortKeys() {
	sort.SliceStable(m.items, func(i, j int) bool {
		return m.items[i].Key < m.items[j].Key
	})
}

// Len returns the length of the map.
func (m *OrderedMap) Len() int {
	return len(m.items)
}

// Items provides the items in the map, in order.
func (m *OrderedMap) Items() []OrderedMapItem {
	return m.items
}

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(m)
}

type orderedMapEncoder struct{}

func (e *orderedMapEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	m := *((*OrderedMap)(ptr))
	return m.Len() == 0
}

func (e *orderedMapEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	m := *((*OrderedMap)(ptr))
	stream.WriteObjectStart()
	for i, kv := range m.items {
		if i != 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(kv.Key)
		stream.WriteVal(kv.Value)
	}
	stream.WriteObjectEnd()
}

func init() {
	jsoniter.RegisterTypeEncoder("hal.OrderedMap", &orderedMapEncoder{})
}
