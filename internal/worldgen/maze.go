package worldgen

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
)

var ErrMazeTooSmall = errors.New("worldgen: grid too small for a maze")

// MazeConfig carves a perfect maze into the corner lattice. Rooms sit on
// odd corner coordinates; everything else starts as Wall.
type MazeConfig struct {
	Seed int64  `yaml:"seed"`
	Path string `yaml:"path"`
	Wall string `yaml:"wall"`
}

type direction int

const (
	north direction = iota
	south
	east
	west
)

func (d direction) step() (int, int) {
	switch d {
	case north:
		return 0, -1
	case south:
		return 0, 1
	case east:
		return 1, 0
	default:
		return -1, 0
	}
}

// Carve overwrites the whole lattice with a maze and returns the dirty cells.
// The same seed and grid size always carve the same maze.
func Carve(grid *terrain.Grid, cfg MazeConfig) (mapset.Set[terrain.Cell], error) {
	classes := grid.Classes()
	path, ok := classes.ByName(cfg.Path)
	if !ok {
		return mapset.Set[terrain.Cell]{}, fmt.Errorf("maze path %q: %w", cfg.Path, terrain.ErrUnknownClass)
	}
	wall, ok := classes.ByName(cfg.Wall)
	if !ok {
		return mapset.Set[terrain.Cell]{}, fmt.Errorf("maze wall %q: %w", cfg.Wall, terrain.ErrUnknownClass)
	}

	roomsW, roomsH := grid.Width()/2, grid.Height()/2
	if roomsW < 1 || roomsH < 1 {
		return mapset.Set[terrain.Cell]{}, fmt.Errorf("%w: %dx%d", ErrMazeTooSmall, grid.Width(), grid.Height())
	}

	dirty, err := grid.FillCorners(0, 0, grid.Width(), grid.Height(), wall)
	if err != nil {
		return mapset.Set[terrain.Cell]{}, err
	}
	open := func(cx, cy int) error {
		cells, err := grid.SetCorner(cx, cy, path)
		if err != nil {
			return err
		}
		cells.Each(func(c terrain.Cell) { dirty.Put(c) })
		return nil
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	visited := make([]bool, roomsW*roomsH)
	type room struct{ x, y int }

	// Depth-first backtracker from the centre room, kept on an explicit
	// stack so large grids cannot exhaust the goroutine stack.
	start := room{roomsW / 2, roomsH / 2}
	visited[start.y*roomsW+start.x] = true
	if err := open(2*start.x+1, 2*start.y+1); err != nil {
		return mapset.Set[terrain.Cell]{}, err
	}
	stack := []room{start}
	passages := 0

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		dirs := []direction{north, south, east, west}
		rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

		advanced := false
		for _, d := range dirs {
			dx, dy := d.step()
			next := room{cur.x + dx, cur.y + dy}
			if next.x < 0 || next.y < 0 || next.x >= roomsW || next.y >= roomsH {
				continue
			}
			if visited[next.y*roomsW+next.x] {
				continue
			}
			visited[next.y*roomsW+next.x] = true

			// Knock out the wall corner between the rooms, then the room.
			if err := open(2*cur.x+1+dx, 2*cur.y+1+dy); err != nil {
				return mapset.Set[terrain.Cell]{}, err
			}
			if err := open(2*next.x+1, 2*next.y+1); err != nil {
				return mapset.Set[terrain.Cell]{}, err
			}
			passages++
			stack = append(stack, next)
			advanced = true
			break
		}
		if !advanced {
			stack = stack[:len(stack)-1]
		}
	}

	logger.Debug("Maze carved",
		"seed", cfg.Seed,
		"rooms", roomsW*roomsH,
		"passages", passages,
		"dirty", dirty.Size())

	return dirty, nil
}
