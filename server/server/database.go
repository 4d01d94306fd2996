package server

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const listenerBuffer = 64

type buttonCodeMap map[string]string
type remoteCodeMap map[string]buttonCodeMap

type codeDatabase struct {
	mu        sync.RWMutex
	store     remoteCodeMap
	listeners map[string]chan conversionEvent
	log       *zap.Logger
}

type codeCRUD interface {
	insert(remote, source string, codes buttonCodeMap)
	getRemoteNames() []string
	getButtons(remote string) (buttonCodeMap, error)
	getCode(remote, button string) (string, error)
}

type codeNotifier interface {
	notify(subscriber string) (<-chan conversionEvent, error)
	unNotify(subscriber string) error
}

var (
	_ codeCRUD     = (*codeDatabase)(nil)
	_ codeNotifier = (*codeDatabase)(nil)
)

func newDatabase(log *zap.Logger) *codeDatabase {
	return &codeDatabase{
		store:     make(remoteCodeMap),
		listeners: make(map[string]chan conversionEvent),
		log:       log,
	}
}

func (db *codeDatabase) notify(subscriber string) (<-chan conversionEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.listeners[subscriber]; ok {
		return nil, fmt.Errorf("Subscriber '%s' already registered", subscriber)
	}
	ch := make(chan conversionEvent, listenerBuffer)
	db.listeners[subscriber] = ch
	return ch, nil
}

func (db *codeDatabase) unNotify(subscriber string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.listeners[subscriber]; !ok {
		return fmt.Errorf("Subscriber '%s' not registered", subscriber)
	}
	delete(db.listeners, subscriber)
	return nil
}

// insert adds codes to remote, replacing buttons that already exist, and
// sends one event per button to every listener. Listeners that are not
// keeping up miss events rather than blocking the insert.
func (db *codeDatabase) insert(remote, source string, codes buttonCodeMap) {
	db.mu.Lock()
	defer db.mu.Unlock()

	buttons, ok := db.store[remote]
	if !ok {
		db.log.Debug("remote not found, creating new entry", zap.String("remote", remote))
		buttons = make(buttonCodeMap, len(codes))
		db.store[remote] = buttons
	}

	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		buttons[name] = codes[name]
		ev := conversionEvent{Remote: remote, Button: name, Code: codes[name], Source: source}
		for subscriber, ch := range db.listeners {
			select {
			case ch <- ev:
			default:
				db.log.Warn("listener too slow, dropping event", zap.String("subscriber", subscriber), zap.String("remote", remote), zap.String("button", name))
			}
		}
	}
	db.log.Debug("remote updated", zap.String("remote", remote), zap.Int("inserted", len(codes)), zap.Int("buttons", len(buttons)))
}

func (db *codeDatabase) getRemoteNames() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.store))
	for name := range db.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (db *codeDatabase) getButtons(remote string) (buttonCodeMap, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	buttons, ok := db.store[remote]
	if !ok {
		return nil, fmt.Errorf("Remote '%s' cannot be found", remote)
	}
	cp := make(buttonCodeMap, len(buttons))
	for k, v := range buttons {
		cp[k] = v
	}
	return cp, nil
}

func (db *codeDatabase) getCode(remote, button string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	buttons, ok := db.store[remote]
	if !ok {
		return "", fmt.Errorf("Remote '%s' cannot be found", remote)
	}
	code, ok := buttons[button]
	if !ok {
		return "", fmt.Errorf("Button '%s' cannot be found", button)
	}
	return code, nil
}
