package game

import (
	"math/rand"
	"time"
)

// recPresenter records everything sent to the presentation sink.
type recPresenter struct {
	said    []string
	notices []string
	markers map[MarkerKind]Vec3
	cleared []MarkerKind
}

func newRecPresenter() *recPresenter {
	return &recPresenter{markers: make(map[MarkerKind]Vec3)}
}

func (p *recPresenter) Say(_ string, line string)           { p.said = append(p.said, line) }
func (p *recPresenter) Notify(text string, _ time.Duration) { p.notices = append(p.notices, text) }
func (p *recPresenter) PlaceMarker(k MarkerKind, pos Vec3)  { p.markers[k] = pos }
func (p *recPresenter) ClearMarker(k MarkerKind) {
	delete(p.markers, k)
	p.cleared = append(p.cleared, k)
}

// recEffects records cosmetic requests.
type recEffects struct {
	explosions []Vec3
	shakes     []float64
	craters    []Vec3
	flashes    []EntityID
	muzzles    int
}

func (e *recEffects) SpawnExplosion(pos Vec3, _ float64) { e.explosions = append(e.explosions, pos) }
func (e *recEffects) ScreenShake(i float64)              { e.shakes = append(e.shakes, i) }
func (e *recEffects) SpawnCrater(pos Vec3, _ float64)    { e.craters = append(e.craters, pos) }
func (e *recEffects) FlashDamage(id EntityID)            { e.flashes = append(e.flashes, id) }
func (e *recEffects) MuzzleFlash(Vec3, Vec3)             { e.muzzles++ }

func testDeps(p Presenter) Deps {
	return Deps{
		Presenter: p,
		Rand:      rand.New(rand.NewSource(7)), // #nosec G404 -- test
	}
}

func enemy(id EntityID, x, z, hp, maxHP float64) Entity {
	return Entity{
		ID:       id,
		Position: V3(x, 0, z),
		Tags:     TagEnemy,
		Health:   &Health{Current: hp, Max: maxHP},
	}
}

func ptr(v Vec3) *Vec3 { return &v }
