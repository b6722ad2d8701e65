package messages

// Builder functions give call sites a readable constructor instead of
// hand-filling the tagged Message struct.

func NewSetPosition(slot int32, x, y float32) Message {
	return Message{Kind: SetPosition, Slot: slot, X: x, Y: y}
}

func NewSetTarget(slot int32, x, y float32) Message {
	return Message{Kind: SetTarget, Slot: slot, X: x, Y: y}
}

func NewSetSpeed(slot int32, speed float32) Message {
	return Message{Kind: SetSpeed, Slot: slot, F1: speed}
}

func NewSetFaction(slot int32, faction int32) Message {
	return Message{Kind: SetFaction, Slot: slot, I1: faction}
}

func NewSetHealth(slot int32, health float32) Message {
	return Message{Kind: SetHealth, Slot: slot, F1: health}
}

func NewSetFlags(slot int32, bits uint32) Message {
	return Message{Kind: SetFlags, Slot: slot, I1: int32(bits)}
}

func NewSetSpriteFrame(slot int32, col, row, atlas int32) Message {
	return Message{Kind: SetSpriteFrame, Slot: slot, I1: col, I2: row, I3: atlas}
}

func NewSetDamageFlash(slot int32, intensity float32) Message {
	return Message{Kind: SetDamageFlash, Slot: slot, F1: intensity}
}

func NewApplyDamage(slot int32, amount float32, attacker int32) Message {
	return Message{Kind: ApplyDamage, Slot: slot, F1: amount, I1: attacker}
}

func NewHideNpc(slot int32) Message {
	return Message{Kind: HideNpc, Slot: slot}
}

func NewSpawnProj(fromX, fromY, toX, toY, speed, damage, lifetime float32, faction, shooter int32) Message {
	return Message{
		Kind: SpawnProj,
		X:    fromX, Y: fromY, X2: toX, Y2: toY,
		F1: speed, F2: damage, F3: lifetime,
		I1: faction, I2: shooter,
	}
}

func NewHideProj(slot int32) Message {
	return Message{Kind: HideProj, Slot: slot}
}

func NewBuildingDamage(buildingIdx int32, amount float32) Message {
	return Message{Kind: BuildingDamage, BuildingIdx: buildingIdx, F1: amount}
}
