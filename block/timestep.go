package block

/*
CalcBlockTimeStep writes the local time step of every interior cell. A
user-fixed step is nondimensionalized by aRef/LRef and applied uniformly;
otherwise the CFL bound over the summed convective and viscous spectral
radii applies, the viscous sum weighted by the stability coefficient and
omitted for inviscid runs.
*/
func (b *Block) CalcBlockTimeStep(fp *FlowPhys) {
	var (
		inp = fp.Inp
		gh  = b.NumGhosts
	)
	if inp.Dt > 0 {
		dt := fp.FS.NondimTime(inp.Dt)
		b.Dt.Fill(dt)
		return
	}
	for kp := 0; kp < b.NK; kp++ {
		for jp := 0; jp < b.NJ; jp++ {
			for ip := 0; ip < b.NI; ip++ {
				var (
					lamSum = b.SpecRadI.At(ip, jp, kp) + b.SpecRadJ.At(ip, jp, kp) +
						b.SpecRadK.At(ip, jp, kp)
				)
				if inp.IsViscous() {
					lamSum += inp.ViscousCoeff() * (b.ViscRadI.At(ip, jp, kp) +
						b.ViscRadJ.At(ip, jp, kp) + b.ViscRadK.At(ip, jp, kp))
				}
				b.AvgWaveSpeed.Set(ip, jp, kp, lamSum)
				b.Dt.Set(ip, jp, kp, inp.CFL*b.Vol.At(ip+gh, jp+gh, kp+gh)/lamSum)
			}
		}
	}
}
