// Package session is the authority over running games.
//
// Manager keeps one engine per playing room, keyed by room id. Engines are
// created with StartEngine, either dealt fresh from a room's roster or
// rehydrated from the snapshot stored on the room, and dropped with
// Teardown when the room goes away.
//
// Concurrency:
//
// All actions on one room run under that room's lock (WithRoom). Rooms
// never wait on each other. Engines themselves are not safe for concurrent
// use, so callers must hold the room lock while touching them.
//
// Persistence:
//
// Snapshots are written by a Persister on a background goroutine. It keeps
// only the latest snapshot of each room, so persistence never slows down a
// turn, and a crash loses at most the last action. Storage backends
// implement RoomPersistence; FilePersistence and MemoryPersistence live
// here, sqlite and postgres under game/storage.
//
// Usage:
//
//	store, _ := session.NewFilePersistence("sessions")
//	manager := session.NewManager(directory, configs, session.WithStore(store))
//	defer manager.Close(ctx)
//
//	// rebuild in-flight games before serving
//	if _, err := manager.Recover(ctx); err != nil {
//		return err
//	}
package session
