package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"realm/internal/inventory"
	"realm/internal/skills"
)

// Command names accepted from clients.
const (
	CmdNavigate             = "navigate"
	CmdUseSkill             = "use_skill"
	CmdCancel               = "cancel"
	CmdRespawn              = "respawn"
	CmdSwapInventory        = "swap_inventory"
	CmdSplit                = "split"
	CmdMerge                = "merge"
	CmdEquip                = "equip"
	CmdUnequip              = "unequip"
	CmdUseItem              = "use_item"
	CmdLearnSkill           = "learn_skill"
	CmdUpgradeSkill         = "upgrade_skill"
	CmdIncreaseStrength     = "increase_strength"
	CmdIncreaseIntelligence = "increase_intelligence"
	CmdSetTarget            = "set_target"
	CmdTradeRequest         = "trade_request"
	CmdTradeAcceptRequest   = "trade_accept_request"
	CmdTradeDeclineRequest  = "trade_decline_request"
	CmdTradeOfferGold       = "trade_offer_gold"
	CmdTradeOfferItem       = "trade_offer_item"
	CmdTradeClearItem       = "trade_clear_item"
	CmdTradeLock            = "trade_lock"
	CmdTradeAccept          = "trade_accept"
	CmdLootGold             = "loot_gold"
	CmdLootItem             = "loot_item"
	CmdNpcBuy               = "npc_buy"
	CmdNpcSell              = "npc_sell"
	CmdQuestAccept          = "quest_accept"
	CmdQuestComplete        = "quest_complete"
)

// Command is a client request. Which fields matter depends on Name.
type Command struct {
	Name             string     `json:"name"`
	Index            int        `json:"index"`
	To               int        `json:"to"`
	Amount           int64      `json:"amount"`
	Target           string     `json:"target"`
	Key              string     `json:"key"`
	Destination      mgl64.Vec3 `json:"destination"`
	StoppingDistance float64    `json:"stopping_distance"`
}

// apply runs one command. Intents go to the inbox for the FSM; everything
// else is validated and applied immediately. Anything that fails validation
// is dropped without touching state.
func (w *World) apply(playerID string, cmd Command) {
	p, ok := w.player(playerID)
	if !ok {
		return
	}
	switch cmd.Name {
	case CmdNavigate:
		p.inbox.Post(Intent{Kind: IntentNavigate, Destination: cmd.Destination, StoppingDistance: cmd.StoppingDistance})
	case CmdUseSkill:
		p.inbox.Post(Intent{Kind: IntentSkill, Skill: cmd.Index})
	case CmdCancel:
		p.inbox.Post(Intent{Kind: IntentCancel})
	case CmdRespawn:
		p.inbox.Post(Intent{Kind: IntentRespawn})
	case CmdSwapInventory:
		if w.active(p) {
			p.inv.Swap(cmd.Index, cmd.To)
		}
	case CmdSplit:
		if w.active(p) {
			p.inv.Split(cmd.Index, cmd.To)
		}
	case CmdMerge:
		if w.active(p) {
			p.inv.Merge(w.catalog, cmd.Index, cmd.To)
		}
	case CmdEquip:
		if w.active(p) && inventory.Equip(w.catalog, p.inv, p.equipment, cmd.Index, cmd.To, p.lvl) {
			w.clampVitals(p)
		}
	case CmdUnequip:
		if w.active(p) && inventory.Unequip(w.catalog, p.inv, p.equipment, cmd.Index, cmd.To) {
			w.clampVitals(p)
		}
	case CmdUseItem:
		w.useItem(p, cmd.Index)
	case CmdLearnSkill, CmdUpgradeSkill:
		w.progressSkill(p, cmd.Name, cmd.Index)
	case CmdIncreaseStrength, CmdIncreaseIntelligence:
		w.spendAttribute(p, cmd.Name)
	case CmdSetTarget:
		if _, ok := w.visible(cmd.Target); ok && p.Alive() {
			p.target = cmd.Target
		}
	case CmdTradeRequest:
		w.tradeRequest(p, cmd.Target)
	case CmdTradeAcceptRequest:
		w.tradeAcceptRequest(p)
	case CmdTradeDeclineRequest:
		p.tradeRequestFrom = ""
	case CmdTradeOfferGold:
		if w.trading(p) {
			p.trade.OfferGold(p.name, cmd.Amount, p.gold)
		}
	case CmdTradeOfferItem:
		if w.trading(p) {
			p.trade.OfferItem(p.name, cmd.To, cmd.Index, p.inv)
		}
	case CmdTradeClearItem:
		if w.trading(p) {
			p.trade.ClearItem(p.name, cmd.To)
		}
	case CmdTradeLock:
		if w.trading(p) {
			p.trade.Lock(p.name)
		}
	case CmdTradeAccept:
		w.tradeAccept(p)
	case CmdLootGold:
		w.lootGold(p)
	case CmdLootItem:
		w.lootItem(p, cmd.Index)
	case CmdNpcBuy:
		w.npcBuy(p, cmd.Index, cmd.Amount)
	case CmdNpcSell:
		w.npcSell(p, cmd.Index, cmd.Amount)
	case CmdQuestAccept:
		w.acceptQuest(p, cmd.Key)
	case CmdQuestComplete:
		w.completeQuest(p, cmd.Key)
	default:
		w.l.Debugf("Ignoring unknown command [%s] from [%s].", cmd.Name, p.name)
	}
}

// active players may manage items and skills.
func (w *World) active(p *Player) bool {
	return p.state == StateIdle || p.state == StateMoving || p.state == StateCasting
}

func (w *World) trading(p *Player) bool {
	return p.state == StateTrading && p.trade != nil && !p.trade.Closed()
}

func (w *World) useItem(p *Player, index int) {
	if !w.active(p) || !p.Alive() {
		return
	}
	it, ok := p.inv.At(index)
	if !ok {
		return
	}
	tpl, ok := w.catalog.Item(it.Key)
	if !ok || !tpl.Usable || p.lvl < tpl.MinLevel {
		return
	}
	d := w.derived(p)
	p.health = min(p.health+tpl.HealHealth, d.HealthMax)
	p.mana = min(p.mana+tpl.HealMana, d.ManaMax)
	p.inv.Consume(index, 1)
}

func (w *World) progressSkill(p *Player, name string, index int) {
	if !w.active(p) || index < 0 || index >= len(p.skills) {
		return
	}
	tpl, ok := w.catalog.Skill(p.skills[index].Key)
	if !ok {
		return
	}
	who := skills.Learner{Level: p.lvl, SkillExperience: p.skillExperience}
	if name == CmdLearnSkill {
		skills.Learn(p.skills, index, tpl, &who)
	} else {
		skills.Upgrade(p.skills, index, tpl, &who)
	}
	p.skillExperience = who.SkillExperience
}

// AttributePoints is the number of unspent attribute points.
func (p *Player) AttributePoints() int {
	return max(p.lvl-1-p.attributes.Spent(), 0)
}

func (w *World) spendAttribute(p *Player, name string) {
	if !p.Alive() || p.AttributePoints() == 0 {
		return
	}
	if name == CmdIncreaseStrength {
		p.attributes.Strength++
	} else {
		p.attributes.Intelligence++
	}
}

func (w *World) tradeRequest(p *Player, targetID string) {
	if !w.active(p) || !p.Alive() {
		return
	}
	other, ok := w.player(targetID)
	if !ok || other.id == p.id || !other.Alive() || other.state == StateTrading {
		return
	}
	if p.distanceTo(&other.Entity) > InteractionRange {
		return
	}
	other.tradeRequestFrom = p.name
}

func (w *World) tradeAcceptRequest(p *Player) {
	if !w.active(p) || !p.Alive() || p.tradeRequestFrom == "" {
		return
	}
	sender, ok := w.byName[p.tradeRequestFrom]
	if !ok || !sender.Alive() || sender.state == StateTrading {
		p.tradeRequestFrom = ""
		return
	}
	if p.distanceTo(&sender.Entity) > InteractionRange {
		return
	}
	sender.tradeRequestFrom = p.name
}

// tradeAccept latches p's acceptance. The second acceptance performs the
// exchange right here on the tick, so no other command interleaves.
func (w *World) tradeAccept(p *Player) {
	if !w.trading(p) {
		return
	}
	other, ok := w.byName[p.trade.Other(p.name)]
	if !ok || !p.trade.Accept(p.name) {
		return
	}
	s := p.trade
	if err := s.Commit(p, other); err != nil {
		w.l.WithError(err).Infof("Trade between [%s] and [%s] aborted.", p.name, other.name)
	} else {
		w.l.Infof("Trade between [%s] and [%s] completed.", p.name, other.name)
	}
	p.tradeRequestFrom = ""
	other.tradeRequestFrom = ""
}

// lootable returns p's target if it is a dead monster within reach.
func (w *World) lootable(p *Player) (*Monster, bool) {
	if !w.active(p) || !p.Alive() {
		return nil, false
	}
	t, ok := w.visible(p.target)
	if !ok {
		return nil, false
	}
	m, ok := t.(*Monster)
	if !ok || m.Alive() || p.distanceTo(&m.Entity) > InteractionRange {
		return nil, false
	}
	return m, true
}

func (w *World) lootGold(p *Player) {
	m, ok := w.lootable(p)
	if !ok || m.lootGold == 0 {
		return
	}
	p.gold += m.lootGold
	m.lootGold = 0
}

func (w *World) lootItem(p *Player, index int) {
	m, ok := w.lootable(p)
	if !ok {
		return
	}
	it, ok := m.loot.At(index)
	if !ok {
		return
	}
	if p.inv.Add(w.catalog, it.Key, it.Amount) {
		m.loot.Clear(index)
	}
}

// npcInReach returns p's target if it is an npc within reach.
func (w *World) npcInReach(p *Player) (*Npc, bool) {
	if !w.active(p) || !p.Alive() {
		return nil, false
	}
	t, ok := w.visible(p.target)
	if !ok {
		return nil, false
	}
	n, ok := t.(*Npc)
	if !ok || p.distanceTo(&n.Entity) > InteractionRange {
		return nil, false
	}
	return n, true
}

func validAmount(amount int64) bool {
	return amount > 0 && amount <= math.MaxInt32
}

func (w *World) npcBuy(p *Player, index int, amount int64) {
	n, ok := w.npcInReach(p)
	if !ok || index < 0 || index >= len(n.template.Vendor) || !validAmount(amount) {
		return
	}
	tpl, ok := w.catalog.Item(n.template.Vendor[index])
	if !ok || tpl.BuyPrice <= 0 {
		return
	}
	cost := tpl.BuyPrice * amount
	if p.gold < cost || !p.inv.CanAdd(w.catalog, tpl.Name, int(amount)) {
		return
	}
	p.inv.Add(w.catalog, tpl.Name, int(amount))
	p.gold -= cost
}

func (w *World) npcSell(p *Player, index int, amount int64) {
	if _, ok := w.npcInReach(p); !ok || !validAmount(amount) {
		return
	}
	it, ok := p.inv.At(index)
	if !ok || int64(it.Amount) < amount {
		return
	}
	tpl, ok := w.catalog.Item(it.Key)
	if !ok || tpl.SellPrice <= 0 {
		return
	}
	p.inv.Consume(index, int(amount))
	p.gold += tpl.SellPrice * amount
}
