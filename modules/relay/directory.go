package relay

import (
	"slices"
	"sort"
	"time"

	"github.com/example/meetrelay/domain/call"
)

type room struct {
	key       string
	members   []string
	createdAt time.Time
}

// Directory maps room keys to ordered member lists, with a reverse index
// from connection id to room key. A room exists only while it has members.
type Directory struct {
	rooms map[string]*room
	index map[string]string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*room),
		index: make(map[string]string),
	}
}

// Join adds id to the room under key, creating the room if needed, and returns
// the roster after the join. created reports whether the room was new.
//
// A connection already in a room is left where it is: Join returns that room's
// roster unchanged together with call.ErrAlreadyJoined.
func (d *Directory) Join(key, id string, now time.Time) (roster []string, created bool, err error) {
	if current, ok := d.index[id]; ok {
		return slices.Clone(d.rooms[current].members), false, call.ErrAlreadyJoined
	}

	r, ok := d.rooms[key]
	if !ok {
		r = &room{key: key, createdAt: now}
		d.rooms[key] = r
		created = true
	}
	r.members = append(r.members, id)
	d.index[id] = key
	return slices.Clone(r.members), created, nil
}

// Leave removes id from its room. ok is false when id was in no room.
// The room is deleted once its last member leaves.
func (d *Directory) Leave(id string) (key string, remaining []string, ok bool) {
	key, ok = d.index[id]
	if !ok {
		return "", nil, false
	}
	delete(d.index, id)

	r := d.rooms[key]
	if i := slices.Index(r.members, id); i >= 0 {
		r.members = slices.Delete(r.members, i, i+1)
	}
	if len(r.members) == 0 {
		delete(d.rooms, key)
		return key, nil, true
	}
	return key, slices.Clone(r.members), true
}

// RoomOf returns the room key a connection is in.
func (d *Directory) RoomOf(id string) (string, bool) {
	key, ok := d.index[id]
	return key, ok
}

// Members returns the roster of a room.
func (d *Directory) Members(key string) ([]string, bool) {
	r, ok := d.rooms[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(r.members), true
}

// CreatedAt returns when the room was opened.
func (d *Directory) CreatedAt(key string) (time.Time, bool) {
	r, ok := d.rooms[key]
	if !ok {
		return time.Time{}, false
	}
	return r.createdAt, true
}

// Keys returns all room keys in sorted order.
func (d *Directory) Keys() []string {
	keys := make([]string, 0, len(d.rooms))
	for key := range d.rooms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Participants returns the number of connections that are in any room.
func (d *Directory) Participants() int {
	return len(d.index)
}

// Len returns the number of open rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}
