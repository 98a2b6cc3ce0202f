package sim

import (
	"math"
	"testing"
)

func TestAccuracyInterpolation(t *testing.T) {
	w := SimWeapon{MinRange: 0, MaxRange: 100, AccuracyClose: 0.6, AccuracyFar: 0.2}
	cases := []struct {
		dist float64
		want float64
	}{
		{0, 0.6},
		{50, 0.4},
		{100, 0.2},
	}
	for _, tc := range cases {
		if got := w.accuracyAt(tc.dist); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("accuracy at %v = %v, want %v", tc.dist, got, tc.want)
		}
	}

	// Below the minimum range the close value applies unchanged.
	banded := SimWeapon{MinRange: 50, MaxRange: 150, AccuracyClose: 0.5, AccuracyFar: 0.3}
	if got := banded.accuracyAt(20); got != 0.5 {
		t.Fatalf("accuracy below MinRange = %v, want 0.5", got)
	}
}

func TestKineticBonusFalloff(t *testing.T) {
	w := SimWeapon{Penetration: 10, MaxRange: 100, Kinetic: true}
	if got := w.kineticBonus(0); got != 5 {
		t.Fatalf("muzzle bonus = %v, want 5", got)
	}
	if got := w.kineticBonus(100); got != 0 {
		t.Fatalf("max-range bonus = %v, want 0", got)
	}
	if got := w.kineticBonus(50); got != 2.5 {
		t.Fatalf("mid-range bonus = %v, want 2.5", got)
	}
	chem := SimWeapon{Penetration: 10, MaxRange: 100}
	if got := chem.kineticBonus(0); got != 0 {
		t.Fatalf("non-kinetic bonus = %v, want 0", got)
	}
}

func TestConsumeShotAndCooldown(t *testing.T) {
	w := SimWeapon{CooldownTicks: 10, Ammo: 2}
	if !w.Ready() {
		t.Fatalf("fresh weapon should be ready")
	}
	w.consumeShot()
	if w.Cooldown != 10 || w.Ammo != 1 {
		t.Fatalf("after shot: cooldown=%d ammo=%d, want 10/1", w.Cooldown, w.Ammo)
	}
	if w.Ready() {
		t.Fatalf("weapon on cooldown should not be ready")
	}
	for i := 0; i < 10; i++ {
		w.tickCooldown()
	}
	if !w.Ready() {
		t.Fatalf("weapon should be ready after cooldown elapses")
	}
	w.consumeShot()
	if w.Ammo != 0 || w.HasAmmo() {
		t.Fatalf("ammo should be exhausted, got %d", w.Ammo)
	}
}

func TestUnlimitedAmmoNeverDrains(t *testing.T) {
	w := SimWeapon{CooldownTicks: 1, Ammo: AmmoUnlimited}
	for i := 0; i < 50; i++ {
		w.consumeShot()
		w.tickCooldown()
	}
	if w.Ammo != AmmoUnlimited || !w.HasAmmo() {
		t.Fatalf("unlimited ammo drained to %d", w.Ammo)
	}
}

func TestInRange(t *testing.T) {
	w := SimWeapon{MinRange: 100, MaxRange: 500}
	if w.InRange(50) {
		t.Fatalf("distance under MinRange should be out of envelope")
	}
	if !w.InRange(100) || !w.InRange(500) {
		t.Fatalf("envelope bounds are inclusive")
	}
	if w.InRange(501) {
		t.Fatalf("distance past MaxRange should be out of envelope")
	}
}
