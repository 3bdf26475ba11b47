package analysis

import (
	"math"

	"kmj_screener/services/kmj"
)

// Standard periods for the auxiliary indicators
const (
	MACDFast    = 12
	MACDSlow    = 26
	MACDSignal  = 9
	RSIPeriod   = 14
	BollPeriod  = 20
	BollWidth   = 2.0
	KDJPeriod   = 9
	VolumeShort = 5
	VolumeLong  = 10
)

// Thresholds used when describing RSI
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// Indicators are the latest-bar readings of the auxiliary indicator set
type Indicators struct {
	MACD       kmj.Value `json:"macd"`
	MACDSignal kmj.Value `json:"macd_signal"`
	MACDHist   kmj.Value `json:"macd_hist"`
	K          kmj.Value `json:"k"`
	D          kmj.Value `json:"d"`
	J          kmj.Value `json:"j"`
	BollUpper  kmj.Value `json:"boll_upper"`
	BollMiddle kmj.Value `json:"boll_middle"`
	BollLower  kmj.Value `json:"boll_lower"`
	RSI        kmj.Value `json:"rsi"`
	VolumeMA5  kmj.Value `json:"volume_ma5"`
	VolumeMA10 kmj.Value `json:"volume_ma10"`
}

// ComputeIndicators evaluates every auxiliary indicator at the last bar.
// Readings whose window is not yet filled are undefined.
func ComputeIndicators(series kmj.Series) Indicators {
	var ind Indicators
	if len(series) == 0 {
		return ind
	}

	closes := series.Closes()
	volumes := make([]float64, len(series))
	for i, b := range series {
		volumes[i] = b.Volume
	}

	ind.MACD, ind.MACDSignal, ind.MACDHist = MACD(closes)
	ind.K, ind.D, ind.J = KDJ(series)
	ind.BollUpper, ind.BollMiddle, ind.BollLower = Bollinger(closes)
	ind.RSI = RSI(closes)
	ind.VolumeMA5 = mean(volumes, VolumeShort)
	ind.VolumeMA10 = mean(volumes, VolumeLong)
	return ind
}

// ema smooths values with factor 2/(period+1), seeded with the first value
func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// MACD returns the DIF line (EMA12 − EMA26), its 9-bar EMA and the
// histogram 2×(DIF − signal). DIF needs 26 closes, the signal 34.
func MACD(closes []float64) (macd, signal, hist kmj.Value) {
	n := len(closes)
	if n < MACDSlow {
		return kmj.None(), kmj.None(), kmj.None()
	}
	fast := ema(closes, MACDFast)
	slow := ema(closes, MACDSlow)
	dif := make([]float64, n)
	for i := range closes {
		dif[i] = fast[i] - slow[i]
	}
	macd = kmj.Some(dif[n-1])
	if n < MACDSlow+MACDSignal-1 {
		return macd, kmj.None(), kmj.None()
	}
	dea := ema(dif, MACDSignal)
	return macd, kmj.Some(dea[n-1]), kmj.Some(2 * (dif[n-1] - dea[n-1]))
}

// RSI is the 14-bar relative strength from average gains and losses.
// A window with no losses reads 100, one with no movement at all 50.
func RSI(closes []float64) kmj.Value {
	n := len(closes)
	if n < RSIPeriod+1 {
		return kmj.None()
	}
	var gains, losses float64
	for i := n - RSIPeriod; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	switch {
	case gains == 0 && losses == 0:
		return kmj.Some(50)
	case losses == 0:
		return kmj.Some(100)
	}
	rs := gains / losses
	return kmj.Some(100 - 100/(1+rs))
}

// Bollinger returns the 20-bar SMA and the bands two population
// standard deviations away
func Bollinger(closes []float64) (upper, middle, lower kmj.Value) {
	n := len(closes)
	if n < BollPeriod {
		return kmj.None(), kmj.None(), kmj.None()
	}
	window := closes[n-BollPeriod:]
	var sum float64
	for _, c := range window {
		sum += c
	}
	sma := sum / BollPeriod

	var variance float64
	for _, c := range window {
		diff := c - sma
		variance += diff * diff
	}
	width := BollWidth * math.Sqrt(variance/BollPeriod)
	return kmj.Some(sma + width), kmj.Some(sma), kmj.Some(sma - width)
}

// KDJ is the 9-bar stochastic with 1/3 smoothing. K and D start at 50;
// a window without range reads RSV 50. J = 3K − 2D.
func KDJ(series kmj.Series) (k, d, j kmj.Value) {
	n := len(series)
	if n < KDJPeriod {
		return kmj.None(), kmj.None(), kmj.None()
	}
	kv, dv := 50.0, 50.0
	for i := KDJPeriod - 1; i < n; i++ {
		highest, lowest := series[i].High, series[i].Low
		for _, b := range series[i-KDJPeriod+1 : i] {
			highest = math.Max(highest, b.High)
			lowest = math.Min(lowest, b.Low)
		}
		rsv := 50.0
		if highest > lowest {
			rsv = (series[i].Close - lowest) / (highest - lowest) * 100
		}
		kv = kv*2/3 + rsv/3
		dv = dv*2/3 + kv/3
	}
	return kmj.Some(kv), kmj.Some(dv), kmj.Some(3*kv - 2*dv)
}

// mean averages the last period values
func mean(values []float64, period int) kmj.Value {
	n := len(values)
	if n < period {
		return kmj.None()
	}
	var sum float64
	for _, v := range values[n-period:] {
		sum += v
	}
	return kmj.Some(sum / float64(period))
}
