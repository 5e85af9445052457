// Package session connects websocket clients to the world: it runs the login
// handshake, character selection, the tick loop and periodic persistence.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"realm/internal/auth"
	"realm/internal/catalog"
	"realm/internal/chat"
	"realm/internal/data"
	"realm/internal/presence"
	"realm/internal/world"
)

const saveTimeout = 5 * time.Second

// errKicked ends a connection after an error flagged with disconnect.
var errKicked = errors.New("session closed by server")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Coordinator struct {
	l         logrus.FieldLogger
	world     *world.World
	catalog   *catalog.Catalog
	store     data.Store
	auth      *auth.Service
	presence  *presence.Registry
	chat      *chat.Hub
	tick      time.Duration
	saveEvery time.Duration
	now       func() time.Time

	sessions context.Context
	stopAll  context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	clients map[string]*client // by player entity id
}

func NewCoordinator(l logrus.FieldLogger, w *world.World, cat *catalog.Catalog, store data.Store, authn *auth.Service, tick, saveEvery time.Duration) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		l:         l,
		world:     w,
		catalog:   cat,
		store:     store,
		auth:      authn,
		presence:  presence.NewRegistry(l, store),
		chat:      chat.NewHub(l),
		tick:      tick,
		saveEvery: saveEvery,
		now:       time.Now,
		sessions:  ctx,
		stopAll:   cancel,
		clients:   make(map[string]*client),
	}
}

// Handler exposes the websocket endpoint, registration and a health check.
func (c *Coordinator) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", c.ServeWS)
	mux.HandleFunc("/register", c.auth.RegisterHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"online": c.presence.Online()})
	})
	return mux
}

// Run drives the simulation until ctx is done. On the way out every session
// is closed, which saves and despawns its character, and a last save-all
// catches anything left.
func (c *Coordinator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				c.step(c.now())
			}
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(c.saveEvery)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				c.saveAll(gctx)
			}
		}
	})
	err := g.Wait()

	c.stop()
	c.saveAll(context.Background())
	c.l.Info("Coordinator stopped.")
	return err
}

func (c *Coordinator) stop() {
	c.mu.Lock()
	c.stopAll()
	c.mu.Unlock()
	c.wg.Wait()
}

// step advances the world one tick and hands every update to its client.
func (c *Coordinator) step(now time.Time) {
	updates := c.world.Step(now)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range updates {
		cl, ok := c.clients[updates[i].Player]
		if !ok {
			continue
		}
		if !cl.push(outbound{Type: MsgUpdate, Update: &updates[i]}) {
			// the delta is gone, so the next one must start from scratch
			c.world.Resync(updates[i].Player)
		}
	}
}

// saveAll persists a consistent snapshot of every online character.
func (c *Coordinator) saveAll(ctx context.Context) {
	snaps := c.world.Snapshots(c.now())
	failed := 0
	for _, s := range snaps {
		if err := c.save(ctx, s); err != nil {
			failed++
		}
	}
	if len(snaps) > 0 {
		c.l.WithField("failed", failed).Debugf("Saved [%d] characters.", len(snaps)-failed)
	}
}

func (c *Coordinator) save(ctx context.Context, snap data.CharacterSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	err := c.store.Save(ctx, snap)
	if err != nil {
		c.l.WithError(err).WithField("character", snap.Name).Errorf("Unable to save character [%s].", snap.Name)
	}
	return err
}

func (c *Coordinator) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.l.WithError(err).Warn("Websocket upgrade failed.")
		return
	}
	c.mu.Lock()
	if c.sessions.Err() != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	cl := newClient(c.l.WithField("remote", r.RemoteAddr), conn)
	g, gctx := errgroup.WithContext(c.sessions)
	g.Go(func() error { return c.readPump(gctx, cl) })
	g.Go(func() error { return cl.writePump(gctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, errKicked) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		cl.l.WithError(err).Debug("Connection ended.")
	}
	c.disconnect(cl)
}

func (c *Coordinator) readPump(ctx context.Context, cl *client) error {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := c.handle(ctx, cl, raw); err != nil {
			return err
		}
	}
}

// handle processes one client message. A non-nil error closes the connection.
func (c *Coordinator) handle(ctx context.Context, cl *client, raw []byte) error {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		cl.l.WithError(err).Debug("Ignoring malformed message.")
		return nil
	}

	switch in.Type {
	case MsgLogin:
		return c.login(ctx, cl, in)
	case MsgCreateCharacter:
		return c.createCharacter(ctx, cl, in)
	case MsgSelectCharacter:
		return c.selectCharacter(ctx, cl, in)
	case MsgCommand:
		if cl.player == "" || in.Command == nil {
			cl.l.Debug("Ignoring command outside the world.")
			return nil
		}
		c.world.Enqueue(cl.player, *in.Command)
	case MsgChat:
		if cl.player == "" || in.Chat == nil {
			return nil
		}
		c.chat.Send(cl.name, *in.Chat)
	default:
		cl.l.Debugf("Ignoring unknown message type [%s].", in.Type)
	}
	return nil
}

// fail reports an error to the client and, when disconnect is set, ends the
// connection after the message is flushed.
func (c *Coordinator) fail(cl *client, message string, disconnect bool) error {
	cl.push(outbound{Type: MsgError, Message: message, Disconnect: disconnect})
	if disconnect {
		return errKicked
	}
	return nil
}

func (c *Coordinator) login(ctx context.Context, cl *client, in inbound) error {
	if cl.account != "" {
		return c.fail(cl, "already logged in", false)
	}

	account := in.Account
	if in.Token != "" {
		a, err := c.auth.Verify(in.Token)
		if err != nil {
			return c.fail(cl, "invalid token", true)
		}
		account = a
	} else {
		err := c.auth.Authenticate(ctx, in.Account, in.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			cl.l.WithField("account", in.Account).Info("Rejected login.")
			return c.fail(cl, "invalid account or password", true)
		}
		if err != nil {
			cl.l.WithError(err).Error("Unable to check credentials.")
			return c.fail(cl, "login unavailable", true)
		}
	}

	if err := c.presence.Claim(ctx, account); err != nil {
		if name, ok := c.presence.Character(account); ok {
			cl.l.WithField("character", name).Infof("Account [%s] is already playing.", account)
		}
		return c.fail(cl, "account already online", true)
	}
	cl.account = account
	cl.l = cl.l.WithField("account", account)
	cl.l.Infof("Account [%s] logged in.", account)
	return c.sendCharacters(ctx, cl)
}

func (c *Coordinator) sendCharacters(ctx context.Context, cl *client) error {
	list, err := c.store.Characters(ctx, cl.account)
	if err != nil {
		cl.l.WithError(err).Error("Unable to list characters.")
		return c.fail(cl, "character list unavailable", true)
	}
	token, err := c.auth.Issue(cl.account)
	if err != nil {
		cl.l.WithError(err).Error("Unable to issue token.")
	}
	cl.push(outbound{Type: MsgCharacters, Characters: list, Token: token})
	return nil
}

func (c *Coordinator) createCharacter(ctx context.Context, cl *client, in inbound) error {
	if cl.account == "" || cl.player != "" {
		return c.fail(cl, "not at character selection", false)
	}
	if !auth.ValidName(in.Name) {
		return c.fail(cl, "invalid name", false)
	}
	snap, err := world.NewCharacter(c.catalog, cl.account, in.Name, in.Class)
	if err != nil {
		return c.fail(cl, "unknown class", false)
	}
	err = c.store.CreateCharacter(ctx, snap)
	if errors.Is(err, data.ErrExists) {
		return c.fail(cl, "name already taken", false)
	}
	if err != nil {
		cl.l.WithError(err).Error("Unable to create character.")
		return c.fail(cl, "unable to create character", false)
	}
	cl.l.Infof("Character [%s] created.", snap.Name)
	return c.sendCharacters(ctx, cl)
}

func (c *Coordinator) selectCharacter(ctx context.Context, cl *client, in inbound) error {
	if cl.account == "" || cl.player != "" {
		return c.fail(cl, "not at character selection", false)
	}
	snap, err := c.store.Load(ctx, cl.account, in.Name)
	if errors.Is(err, data.ErrNotFound) {
		cl.l.Infof("Character [%s] not found.", in.Name)
		return c.fail(cl, "unknown character", false)
	}
	if err != nil {
		cl.l.WithError(err).Error("Unable to load character.")
		return c.fail(cl, "unable to load character", false)
	}

	id, err := c.world.Join(snap, c.now())
	if err != nil {
		return c.fail(cl, "character already in world", false)
	}
	cl.player = id
	cl.name = snap.Name
	cl.l = cl.l.WithField("character", snap.Name)

	cl.push(outbound{Type: MsgJoined, ID: id})
	c.mu.Lock()
	c.clients[id] = cl
	c.mu.Unlock()
	// a tick between Join and registration replicated into the void
	c.world.Resync(id)
	c.presence.Play(cl.account, snap.Name)
	c.chat.Join(snap.Name, cl)
	return nil
}

// disconnect saves and despawns the client's character and frees its account.
func (c *Coordinator) disconnect(cl *client) {
	if cl.player != "" {
		c.mu.Lock()
		delete(c.clients, cl.player)
		c.mu.Unlock()
		c.chat.Leave(cl.name, cl)
		if snap, ok := c.world.Leave(cl.player, c.now()); ok {
			_ = c.save(context.Background(), snap)
		}
		cl.player = ""
	}
	if cl.account != "" {
		c.presence.Release(context.Background(), cl.account)
		cl.l.Info("Account logged out.")
		cl.account = ""
	}
}
