package catalog

func powerPort(id, name string, dir Direction, volts float64, rail string, maxCurrent float64) Port {
	return Port{ID: id, Name: name, Kind: KindPower, Direction: dir, Power: &PowerSpec{Voltage: volts, Rail: rail, MaxCurrent: maxCurrent}}
}

func busPort(id, name string, dir Direction, t BusType) Port {
	return Port{ID: id, Name: name, Kind: KindBus, Direction: dir, Bus: &BusSpec{Type: t}}
}

func ioPort(id, name string, dir Direction, t IOType, level float64) Port {
	return Port{ID: id, Name: name, Kind: KindIO, Direction: dir, IO: &IOSpec{Type: t, SignalLevel: level}}
}

func builtinModules() []Module {
	return []Module{
		{
			ID: "power_usb_5v", Name: "USB-C 5V Input", Category: CategoryPower,
			Ports: []Port{
				powerPort("pwr_5v_out", "5V Out", DirectionOut, 5, "VBUS", 3),
				busPort("usb_data", "USB Data", DirectionBidirectional, BusUSB),
			},
		},
		{
			ID: "power_buck_3v3", Name: "Buck Converter 3.3V", Category: CategoryPower,
			Ports: []Port{
				powerPort("vin_5v", "VIN 5V", DirectionIn, 5, "VBUS", 2),
				powerPort("vout_3v3", "VOUT 3.3V", DirectionOut, 3.3, "3V3", 1.5),
			},
		},
		{
			ID: "power_ldo_3v3", Name: "LDO Regulator 3.3V", Category: CategoryPower,
			Ports: []Port{
				powerPort("vin_5v", "VIN 5V", DirectionIn, 5, "VBUS", 0.8),
				powerPort("vout_3v3", "VOUT 3.3V", DirectionOut, 3.3, "3V3", 0.6),
			},
		},
		{
			ID: "mcu_esp32_s3", Name: "ESP32-S3 MCU", Category: CategoryMCU,
			Ports: []Port{
				powerPort("vdd_3v3", "VDD 3.3V", DirectionIn, 3.3, "3V3", 0.5),
				busPort("i2c0", "I2C0", DirectionBidirectional, BusI2C),
				busPort("spi2", "SPI2", DirectionBidirectional, BusSPI),
				busPort("uart0", "UART0", DirectionBidirectional, BusUART),
				busPort("usb_otg", "USB OTG", DirectionBidirectional, BusUSB),
				ioPort("gpio4", "GPIO4", DirectionBidirectional, IOGPIO, 3.3),
				ioPort("adc1_ch0", "ADC1 CH0", DirectionIn, IOADC, 3.3),
				ioPort("pwm0", "LEDC PWM0", DirectionOut, IOPWM, 3.3),
			},
		},
		{
			ID: "mcu_rp2040", Name: "RP2040 MCU", Category: CategoryMCU,
			Ports: []Port{
				powerPort("vdd_3v3", "IOVDD 3.3V", DirectionIn, 3.3, "3V3", 0.1),
				busPort("i2c0", "I2C0", DirectionBidirectional, BusI2C),
				busPort("spi0", "SPI0", DirectionBidirectional, BusSPI),
				busPort("uart0", "UART0", DirectionBidirectional, BusUART),
				ioPort("gpio26", "GPIO26/ADC0", DirectionIn, IOADC, 3.3),
				ioPort("gpio15", "GPIO15", DirectionBidirectional, IOGPIO, 3.3),
			},
		},
		{
			ID: "sensor_bme280", Name: "BME280 Environmental Sensor", Category: CategorySensor,
			Ports: []Port{
				powerPort("vdd_3v3", "VDD 3.3V", DirectionIn, 3.3, "3V3", 0.001),
				busPort("i2c", "I2C", DirectionBidirectional, BusI2C),
			},
		},
		{
			ID: "sensor_mpu6050", Name: "MPU-6050 IMU", Category: CategorySensor,
			Ports: []Port{
				powerPort("vdd_3v3", "VDD 3.3V", DirectionIn, 3.3, "3V3", 0.004),
				busPort("i2c", "I2C", DirectionBidirectional, BusI2C),
				ioPort("int", "INT", DirectionOut, IOInt, 3.3),
			},
		},
		{
			ID: "sensor_ina219", Name: "INA219 Current Monitor", Category: CategorySensor,
			Ports: []Port{
				powerPort("vdd_3v3", "VDD 3.3V", DirectionIn, 3.3, "3V3", 0.001),
				busPort("i2c", "I2C", DirectionBidirectional, BusI2C),
			},
		},
		{
			ID: "iface_usb_uart", Name: "USB-UART Bridge", Category: CategoryInterface,
			Ports: []Port{
				powerPort("vdd_5v", "VDD 5V", DirectionIn, 5, "VBUS", 0.02),
				busPort("usb", "USB", DirectionBidirectional, BusUSB),
				busPort("uart", "UART", DirectionBidirectional, BusUART),
			},
		},
		{
			ID: "iface_level_shifter", Name: "Bidirectional Level Shifter", Category: CategoryInterface,
			Ports: []Port{
				powerPort("vref_low", "VREF 3.3V", DirectionIn, 3.3, "3V3", 0.001),
				powerPort("vref_high", "VREF 5V", DirectionIn, 5, "VBUS", 0.001),
				ioPort("low_side", "Low Side", DirectionBidirectional, IOGPIO, 3.3),
				ioPort("high_side", "High Side", DirectionBidirectional, IOGPIO, 5),
			},
		},
		{
			ID: I2CPullupModuleID, Name: "I2C Pull-up", Category: CategoryGlue,
			Ports: []Port{
				powerPort("vdd_3v3", "VDD 3.3V", DirectionIn, 3.3, "3V3", 0.001),
				busPort("i2c", "I2C", DirectionBidirectional, BusI2C),
			},
		},
	}
}

// Default returns a fresh copy of the built-in module catalog.
func Default() *Catalog {
	return MustNew(builtinModules())
}
