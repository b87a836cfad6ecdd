package contour

import (
	"math"
	"sort"

	"github.com/wgdzlh/nidem/grid"
)

// 数组坐标(row, col)
type point [2]float64

type segment [2]point

func fraction(from, to, level float64) float64 {
	if to == from {
		return 0
	}
	return (level - from) / (to - from)
}

func usable(r *grid.Float, i int) bool {
	v := r.Data[i]
	return v != r.Nodata && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// 行扫描的marching squares，鞍点按低值连通处理
func segments(r *grid.Float, level float64) (segs []segment) {
	for r0 := 0; r0 < r.Rows-1; r0++ {
		r1 := r0 + 1
		for c0 := 0; c0 < r.Cols-1; c0++ {
			c1 := c0 + 1
			iul, iur := r0*r.Cols+c0, r0*r.Cols+c1
			ill, ilr := r1*r.Cols+c0, r1*r.Cols+c1
			if !usable(r, iul) || !usable(r, iur) || !usable(r, ill) || !usable(r, ilr) {
				continue
			}
			ul, ur, ll, lr := r.Data[iul], r.Data[iur], r.Data[ill], r.Data[ilr]
			sq := 0
			if ul > level {
				sq |= 1
			}
			if ur > level {
				sq |= 2
			}
			if ll > level {
				sq |= 4
			}
			if lr > level {
				sq |= 8
			}
			if sq == 0 || sq == 15 {
				continue
			}
			top := point{float64(r0), float64(c0) + fraction(ul, ur, level)}
			bottom := point{float64(r1), float64(c0) + fraction(ll, lr, level)}
			left := point{float64(r0) + fraction(ul, ll, level), float64(c0)}
			right := point{float64(r0) + fraction(ur, lr, level), float64(c1)}
			switch sq {
			case 1:
				segs = append(segs, segment{top, left})
			case 2:
				segs = append(segs, segment{right, top})
			case 3:
				segs = append(segs, segment{right, left})
			case 4:
				segs = append(segs, segment{left, bottom})
			case 5:
				segs = append(segs, segment{top, bottom})
			case 6:
				segs = append(segs, segment{right, top}, segment{left, bottom})
			case 7:
				segs = append(segs, segment{right, bottom})
			case 8:
				segs = append(segs, segment{bottom, right})
			case 9:
				segs = append(segs, segment{top, left}, segment{bottom, right})
			case 10:
				segs = append(segs, segment{bottom, top})
			case 11:
				segs = append(segs, segment{bottom, left})
			case 12:
				segs = append(segs, segment{left, right})
			case 13:
				segs = append(segs, segment{top, right})
			case 14:
				segs = append(segs, segment{left, top})
			}
		}
	}
	return
}

type chain struct {
	pts []point
	idx int
}

// 按端点精确匹配将线段依次拼接成折线，输出按折线创建顺序排列
func assemble(segs []segment) (lines [][]point) {
	var (
		next   int
		chains = map[int]*chain{}
		starts = map[point]*chain{}
		ends   = map[point]*chain{}
	)
	for _, s := range segs {
		from, to := s[0], s[1]
		if from == to {
			continue
		}
		tail, hasTail := starts[to]
		if hasTail {
			delete(starts, to)
		}
		head, hasHead := ends[from]
		if hasHead {
			delete(ends, from)
		}
		switch {
		case hasTail && hasHead:
			if tail == head {
				head.pts = append(head.pts, to)
			} else if tail.idx > head.idx {
				head.pts = append(head.pts, tail.pts...)
				delete(chains, tail.idx)
				starts[head.pts[0]] = head
				ends[head.pts[len(head.pts)-1]] = head
			} else {
				delete(starts, head.pts[0])
				tail.pts = append(append(make([]point, 0, len(head.pts)+len(tail.pts)), head.pts...), tail.pts...)
				delete(chains, head.idx)
				starts[tail.pts[0]] = tail
				ends[tail.pts[len(tail.pts)-1]] = tail
			}
		case !hasTail && !hasHead:
			c := &chain{pts: []point{from, to}, idx: next}
			chains[next] = c
			starts[from] = c
			ends[to] = c
			next++
		case hasTail:
			tail.pts = append([]point{from}, tail.pts...)
			starts[from] = tail
		default:
			head.pts = append(head.pts, to)
			ends[to] = head
		}
	}
	ids := make([]int, 0, len(chains))
	for id := range chains {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	lines = make([][]point, len(ids))
	for i, id := range ids {
		lines[i] = chains[id].pts
	}
	return
}
