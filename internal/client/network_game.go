package client

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"arenaball/pkg/core"
	"arenaball/pkg/physics"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var hudFont = text.NewGoXFace(basicfont.Face7x13)

var (
	floorColor  = color.RGBA{34, 110, 60, 255}
	wallColor   = color.RGBA{80, 80, 80, 255}
	localColor  = color.RGBA{230, 80, 70, 255}
	remoteColor = color.RGBA{70, 130, 230, 255}
	hudColor    = color.RGBA{220, 230, 240, 255}
)

// ScreenSize 按球场尺寸计算窗口大小
func ScreenSize(layout physics.Layout) (int, int) {
	return int(layout.Width * PixelsPerMeter), int(layout.Depth*PixelsPerMeter) + hudHeight
}

// NetworkGameClient 联机游戏客户端（ebiten 游戏循环）
type NetworkGameClient struct {
	session *GameSession
	width   int
	height  int
}

// NewNetworkGameClient 创建联机游戏客户端
func NewNetworkGameClient(session *GameSession) *NetworkGameClient {
	w, h := ScreenSize(session.Layout())
	return &NetworkGameClient{session: session, width: w, height: h}
}

// Update 每个 tick 调用一次
func (ngc *NetworkGameClient) Update() error {
	return ngc.session.Update(time.Now())
}

// Draw 俯视图：地面、墙、玩家与 HUD
func (ngc *NetworkGameClient) Draw(screen *ebiten.Image) {
	layout := ngc.session.Layout()
	screen.Fill(color.RGBA{20, 20, 24, 255})

	vector.DrawFilledRect(screen, 0, hudHeight, float32(layout.Width*PixelsPerMeter), float32(layout.Depth*PixelsPerMeter), floorColor, false)
	for _, wall := range layout.Walls {
		x, y := toScreen(wall.X, wall.Z)
		vector.DrawFilledRect(screen, x, y, float32(wall.W*PixelsPerMeter), float32(wall.D*PixelsPerMeter), wallColor, false)
	}

	ngc.session.World().Each(func(p PlayerData, t TransformData, local bool) {
		clr := remoteColor
		if local {
			clr = localColor
		}
		cx, cy := toScreen(t.Position.X, t.Position.Z)
		// 离地越高画得越大
		radius := float32(physics.DefaultBodyRadius*PixelsPerMeter) * float32(1+math.Min(t.Position.Y, 3)*0.15)
		vector.FillCircle(screen, cx, cy, radius, clr, true)
		if t.WallSide != core.WallNone {
			vector.StrokeCircle(screen, cx, cy, radius+3, 2, hudColor, true)
		}

		fwd := t.Orientation.Forward()
		fx, fy := toScreen(t.Position.X+fwd.X*0.8, t.Position.Z+fwd.Z*0.8)
		vector.StrokeLine(screen, cx, cy, fx, fy, 2, hudColor, true)

		label := p.Name
		if label == "" {
			label = fmt.Sprintf("#%d", p.ID)
		}
		drawText(screen, int(cx)-len(label)*7/2, int(cy)-int(radius)-14, label, hudColor)
	})

	ngc.drawHUD(screen)
}

func (ngc *NetworkGameClient) drawHUD(screen *ebiten.Image) {
	s := ngc.session
	st := s.Predictor().Reconciler().Stats()
	state := s.Predictor().State()

	lines := []string{
		fmt.Sprintf("tick %d  server %d  rtt %v  players %d", s.Predictor().CurrentTick(), s.network.ServerTick(), s.network.RTT(), s.World().Len()),
		fmt.Sprintf("speed %.2f  grounded %v  wall %s", state.HorizontalSpeed(), state.Grounded, state.WallSide),
		fmt.Sprintf("checks %d  corrections %d  replayed %d  truncated %d  err %.4f", st.Checks, st.Corrections, st.ReplayedTicks, st.ReplayTruncated, st.LastError),
	}
	for i, line := range lines {
		drawText(screen, 8, 4+i*16, line, hudColor)
	}
}

// Layout 设置屏幕布局
func (ngc *NetworkGameClient) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ngc.width, ngc.height
}

// Close 关闭网络客户端
func (ngc *NetworkGameClient) Close() {
	ngc.session.network.Close()
}

// toScreen 世界坐标 (x, z) 转屏幕像素，z 轴向上
func toScreen(x, z float64) (float32, float32) {
	return float32(x * PixelsPerMeter), float32(hudHeight + z*PixelsPerMeter)
}

func drawText(screen *ebiten.Image, x, y int, msg string, clr color.Color) {
	options := &text.DrawOptions{}
	options.GeoM.Translate(float64(x), float64(y))
	options.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, msg, hudFont, options)
}
