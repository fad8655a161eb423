package ids

import (
	"sync"
	"time"
)

// epoch 2020-01-01 UTC
var defaultEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

// Generator 雪花 id：41 位毫秒 | 10 位节点 | 12 位序列
type Generator struct {
	mu       sync.Mutex
	epochMS  int64
	nodeID   int64 // 0~1023
	seq      int64 // 0~4095
	lastTSMS int64
	now      func() int64
}

// NewGenerator 节点号越界时回落到 1
func NewGenerator(nodeID int64) *Generator {
	if nodeID < 0 || nodeID > 1023 {
		nodeID = 1
	}
	return &Generator{
		epochMS: defaultEpoch,
		nodeID:  nodeID,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Next 生成下一个 id；时钟回拨时等待追上
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		now := g.now()
		if now < g.lastTSMS {
			time.Sleep(time.Duration(g.lastTSMS-now) * time.Millisecond)
			continue
		}
		if now == g.lastTSMS {
			g.seq = (g.seq + 1) & 0xFFF
			if g.seq == 0 {
				// 序列溢出，等到下一毫秒
				for now <= g.lastTSMS {
					now = g.now()
				}
			}
		} else {
			g.seq = 0
		}
		g.lastTSMS = now

		ts := (now - g.epochMS) & ((1 << 41) - 1)
		return (ts << 22) | (g.nodeID << 12) | g.seq
	}
}

// NodeOf 从 id 中取出节点号
func NodeOf(id int64) int64 { return (id >> 12) & 0x3FF }
